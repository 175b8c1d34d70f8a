package collector

import (
	"context"
	"fmt"
	"time"

	"FAASentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchHistory(ctx context.Context, ticker string, from, to time.Time) (*model.PriceHistory, error)
	FetchQuote(ctx context.Context, ticker string) (*model.Quote, error)
	Name() string
}

// RateFetcher looks up how many quote-currency units buy one base unit.
type RateFetcher interface {
	FetchRate(ctx context.Context, quote string) (*model.ExchangeRate, error)
}

// StatusError is a non-200 upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Code)
}
