package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestDataError_IsMatchesKind(t *testing.T) {
	err := NewDataError(ZeroPrice, "close at index %d is zero", 3).WithTicker("SPY")
	wrapped := fmt.Errorf("evaluate: %w", err)

	if !errors.Is(wrapped, ErrZeroPrice) {
		t.Error("expected wrapped error to match ErrZeroPrice")
	}
	if errors.Is(wrapped, ErrInsufficientData) {
		t.Error("unexpected match against ErrInsufficientData")
	}
	if !errors.Is(wrapped, &DataError{Kind: ZeroPrice, Ticker: "SPY"}) {
		t.Error("expected ticker-scoped match")
	}
	if errors.Is(wrapped, &DataError{Kind: ZeroPrice, Ticker: "QQQ"}) {
		t.Error("unexpected match for another ticker")
	}

	var de *DataError
	if !errors.As(wrapped, &de) || de.Ticker != "SPY" {
		t.Fatalf("expected DataError for SPY, got %v", de)
	}
	if got := de.Error(); got != "[DATA:ZERO_PRICE] SPY: close at index 3 is zero" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWithTicker_DoesNotMutateOriginal(t *testing.T) {
	base := NewDataError(InsufficientData, "need 2 points")
	_ = base.WithTicker("TLT")
	if base.Ticker != "" {
		t.Errorf("original mutated: %q", base.Ticker)
	}
}

func TestAllocationError_ListsTickers(t *testing.T) {
	err := NewAllocationError(MissingPrice, []string{"GLD", "TLT"}, "no live price")
	if !errors.Is(err, ErrMissingPrice) {
		t.Error("expected ErrMissingPrice match")
	}
	if got := err.Error(); got != "[ALLOCATION:MISSING_PRICE] GLD, TLT: no live price" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFetchError_SortedTickers(t *testing.T) {
	err := &FetchError{Failures: map[string]error{
		"VNQ": errors.New("timeout"),
		"EFA": errors.New("404"),
	}}
	tickers := err.Tickers()
	if len(tickers) != 2 || tickers[0] != "EFA" || tickers[1] != "VNQ" {
		t.Errorf("unexpected order %v", tickers)
	}
	if got := err.Error(); got != "failed to fetch data for: EFA (404), VNQ (timeout)" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestFindETF(t *testing.T) {
	e, ok := FindETF(" gld ")
	if !ok || e.Name != "SPDR Gold Shares" {
		t.Errorf("expected GLD in catalog, got %+v %v", e, ok)
	}
	if _, ok := FindETF("ZZZZ"); ok {
		t.Error("unexpected catalog hit")
	}
}
