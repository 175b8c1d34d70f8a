package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FAASentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes map[string][]float64 // per-ticker closes, one per business day from Start
	Prices map[string]float64
	Fail   map[string]error
	Start  time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, ticker string, _, _ time.Time) (*model.PriceHistory, error) {
	if err := m.Fail[ticker]; err != nil {
		return nil, err
	}
	closes, ok := m.Closes[ticker]
	if !ok {
		return nil, &StatusError{Code: 404}
	}
	return &model.PriceHistory{Ticker: ticker, Points: generateMockPoints(m.Start, closes)}, nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, ticker string) (*model.Quote, error) {
	if err := m.Fail[ticker]; err != nil {
		return nil, err
	}
	p, ok := m.Prices[ticker]
	if !ok {
		return nil, &StatusError{Code: 404}
	}
	return &model.Quote{Ticker: ticker, Price: p, Currency: "USD", Timestamp: time.Now().UTC()}, nil
}

func generateMockPoints(start time.Time, closes []float64) []model.PricePoint {
	if start.IsZero() {
		start = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	}
	points := make([]model.PricePoint, len(closes))
	d := dateOf(start)
	for i, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		points[i] = model.PricePoint{Date: d, Open: c, High: c, Low: c, Close: c, Volume: 1000000}
		d = d.AddDate(0, 0, 1)
	}
	return points
}

// Collector fetches the whole universe for one evaluation cycle.
type Collector struct {
	Fetcher        Fetcher
	LookbackMonths int
	Concurrency    int
	Now            func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackMonths int) *Collector {
	return &Collector{
		Fetcher:        fetcher,
		LookbackMonths: lookbackMonths,
		Concurrency:    4,
		Now:            time.Now,
	}
}

// Window returns the [from, to] range covered by the lookback.
func (c *Collector) Window() (time.Time, time.Time) {
	to := c.Now().UTC()
	return to.AddDate(0, -c.LookbackMonths, 0), to
}

// CollectUniverse fetches every ticker concurrently and returns histories
// aligned on the dates all of them share, in input order. Any failed ticker
// fails the whole call with a *model.FetchError listing every failure.
func (c *Collector) CollectUniverse(ctx context.Context, tickers []string) ([]model.PriceHistory, error) {
	from, to := c.Window()
	histories := make([]model.PriceHistory, len(tickers))

	var mu sync.Mutex
	failures := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())
	for i, t := range tickers {
		i, t := i, strings.ToUpper(strings.TrimSpace(t))
		g.Go(func() error {
			h, err := c.Fetcher.FetchHistory(gctx, t, from, to)
			if err != nil {
				log.Printf("[WARN] %s history fetch for %s failed: %v", c.Fetcher.Name(), t, err)
				mu.Lock()
				failures[t] = err
				mu.Unlock()
				return nil
			}
			histories[i] = *h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect universe: %w", err)
	}
	if len(failures) > 0 {
		return nil, &model.FetchError{Failures: failures}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect universe: %w", err)
	}

	aligned := Align(histories)
	if len(aligned) > 0 && len(aligned[0].Points) > 0 {
		pts := aligned[0].Points
		log.Printf("[INFO] Collected %d tickers, %d common days (%s to %s)",
			len(aligned), len(pts), pts[0].Date.Format("2006-01-02"), pts[len(pts)-1].Date.Format("2006-01-02"))
	}
	return aligned, nil
}

// CollectQuotes fetches live prices for tickers concurrently. Failures are
// reported together in a *model.FetchError; the quotes that did arrive are
// returned alongside it.
func (c *Collector) CollectQuotes(ctx context.Context, tickers []string) (map[string]model.Quote, error) {
	quotes := make(map[string]model.Quote, len(tickers))
	failures := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())
	for _, t := range tickers {
		t := strings.ToUpper(strings.TrimSpace(t))
		g.Go(func() error {
			q, err := c.Fetcher.FetchQuote(gctx, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[WARN] %s quote fetch for %s failed: %v", c.Fetcher.Name(), t, err)
				failures[t] = err
				return nil
			}
			quotes[t] = *q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect quotes: %w", err)
	}
	if len(failures) > 0 {
		return quotes, &model.FetchError{Failures: failures}
	}
	return quotes, nil
}

func (c *Collector) concurrency() int {
	if c.Concurrency < 1 {
		return 1
	}
	return c.Concurrency
}

// Align keeps only the dates present in every history, preserving order.
func Align(histories []model.PriceHistory) []model.PriceHistory {
	if len(histories) == 0 {
		return histories
	}
	counts := make(map[time.Time]int)
	for _, h := range histories {
		seen := make(map[time.Time]bool, len(h.Points))
		for _, p := range h.Points {
			d := dateOf(p.Date)
			if !seen[d] {
				seen[d] = true
				counts[d]++
			}
		}
	}

	out := make([]model.PriceHistory, len(histories))
	for i, h := range histories {
		points := make([]model.PricePoint, 0, len(h.Points))
		var last time.Time
		for _, p := range h.Points {
			d := dateOf(p.Date)
			if counts[d] != len(histories) || (!last.IsZero() && d.Equal(last)) {
				continue
			}
			last = d
			points = append(points, p)
		}
		out[i] = model.PriceHistory{Ticker: h.Ticker, Points: points}
	}
	return out
}
