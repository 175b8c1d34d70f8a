package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"FAASentinel/internal/model"
)

// ExchangeRateFetcher implements RateFetcher using the exchangerate-api.com
// "latest" endpoint. Results are cached for TTL.
type ExchangeRateFetcher struct {
	URL    string
	Client *http.Client
	Guard  *Guard
	TTL    time.Duration

	mu     sync.Mutex
	cached *latestRates
	expiry time.Time
}

// NewExchangeRateFetcher creates a fetcher for the given latest-rates URL with optional proxy support.
func NewExchangeRateFetcher(endpoint, proxyURL string, timeout time.Duration, guard *Guard) *ExchangeRateFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &ExchangeRateFetcher{
		URL: endpoint,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Guard: guard,
		TTL:   time.Hour,
	}
}

// latestRates is the JSON shape of the exchangerate-api v4 response.
type latestRates struct {
	Base            string             `json:"base"`
	Rates           map[string]float64 `json:"rates"`
	TimeLastUpdated int64              `json:"time_last_updated"`
}

// FetchRate returns the number of quote units per one base unit.
func (f *ExchangeRateFetcher) FetchRate(ctx context.Context, quote string) (*model.ExchangeRate, error) {
	quote = strings.ToUpper(quote)
	latest, err := f.latest(ctx)
	if err != nil {
		return nil, err
	}
	ts := time.Unix(latest.TimeLastUpdated, 0).UTC()
	if quote == latest.Base {
		return &model.ExchangeRate{Base: latest.Base, Quote: quote, Rate: 1, Timestamp: ts}, nil
	}
	r, ok := latest.Rates[quote]
	if !ok || r <= 0 {
		return nil, fmt.Errorf("%s rate not found in response", quote)
	}
	return &model.ExchangeRate{Base: latest.Base, Quote: quote, Rate: r, Timestamp: ts}, nil
}

func (f *ExchangeRateFetcher) latest(ctx context.Context) (*latestRates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil && time.Now().Before(f.expiry) {
		return f.cached, nil
	}

	out, err := f.Guard.Do(ctx, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch exchange rate: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
		}
		var latest latestRates
		if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
			return nil, fmt.Errorf("decode exchange rate: %w", err)
		}
		return &latest, nil
	})
	if err != nil {
		return nil, err
	}

	latest := out.(*latestRates)
	if latest.Base == "" {
		latest.Base = "USD"
	}
	latest.Base = strings.ToUpper(latest.Base)
	f.cached = latest
	f.expiry = time.Now().Add(f.TTL)
	return latest, nil
}
