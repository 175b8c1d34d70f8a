package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FAASentinel/internal/collector"
	"FAASentinel/internal/config"
	"FAASentinel/internal/fund"
	"FAASentinel/internal/metrics"
	"FAASentinel/internal/model"
	"FAASentinel/internal/service"
)

type fixedRate struct{ rate float64 }

func (f fixedRate) FetchRate(_ context.Context, quote string) (*model.ExchangeRate, error) {
	if quote == "EUR" {
		return nil, errors.New("status 503")
	}
	return &model.ExchangeRate{Base: "USD", Quote: quote, Rate: f.rate}, nil
}

func newTestServer(t *testing.T) (http.Handler, *metrics.Registry) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Universe.Size = 7
	cfg.Universe.CashTicker = "USD"
	cfg.Universe.LookbackMonths = 4
	cfg.Scoring.Mode = string(model.ScoringRank)
	cfg.Scoring.Aggregation = string(model.AggregateMean)
	cfg.Scoring.TopN = 3
	cfg.Scoring.Weights = model.DefaultWeights
	cfg.Allocation.BaseCurrency = "USD"

	f := &collector.MockFetcher{
		Closes: map[string][]float64{
			"A": {100, 102, 101, 105, 107, 110},
			"B": {100, 99, 100, 97, 96, 95},
			"C": {50, 51, 50, 52, 51, 53},
			"D": {20, 20, 21, 21, 22, 22},
			"E": {80, 79, 81, 80, 82, 83},
			"F": {10, 10, 10, 10, 10, 10},
			"G": {30, 31, 30, 29, 30, 31},
			"Z": {10, 0, 10, 10, 10, 10},
		},
		Prices: map[string]float64{"A": 110, "B": 95, "C": 53, "D": 22, "E": 83, "F": 10, "G": 31, "SPY": 500},
	}
	mgr, err := fund.NewManager(filepath.Join(t.TempDir(), "prefs.json"), model.Preferences{Currency: "USD"})
	require.NoError(t, err)
	reg := metrics.New()
	svc := service.New(cfg, collector.NewCollector(f, 4), fixedRate{rate: 1350}, mgr, nil, reg)
	return NewServer(svc, reg, collector.NewGuard("yahoo", 10, 10)).Routes(), reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestEvaluateThenAllocate(t *testing.T) {
	h, reg := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/faa/evaluate", `{"tickers":["a","b","c","d","e","f","g"],"top_n":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ev model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, model.TriggerAPI, ev.Trigger)
	assert.Len(t, ev.Selected, 7)

	rec = do(t, h, http.MethodPost, "/api/faa/allocate", `{"evaluation_id":"`+ev.ID+`","amount":6000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plan model.AllocationPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "USD", plan.Currency)
	assert.NotEmpty(t, plan.Allocations)

	rec = do(t, h, http.MethodGet, "/api/faa/evaluations/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/faa/evaluations/latest.xlsx", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequests.WithLabelValues("/api/faa/evaluate", http.MethodPost, "200")))
}

func TestEvaluateErrors(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		typ    string
	}{
		{"malformed json", `{"tickers":`, http.StatusBadRequest, TypeValidation},
		{"negative top_n", `{"tickers":["A"],"top_n":-1}`, http.StatusBadRequest, TypeValidation},
		{"wrong universe size", `{"tickers":["A","B"]}`, http.StatusBadRequest, TypeValidation},
		{"top_n too large", `{"tickers":["A","B","C","D","E","F","G"],"top_n":9}`, http.StatusUnprocessableEntity, TypeSelection},
		{"zero price", `{"tickers":["A","B","C","D","E","F","Z"]}`, http.StatusUnprocessableEntity, TypeData},
		{"unknown ticker", `{"tickers":["A","B","C","D","E","F","X"]}`, http.StatusBadGateway, TypeUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/faa/evaluate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, "/api/faa/evaluate", p.Instance)
		})
	}

	rec := do(t, h, http.MethodPost, "/api/faa/evaluate", `{"tickers":["A","B","C","D","E","F","X"]}`)
	assert.Equal(t, []string{"X"}, decodeProblem(t, rec).Tickers)
}

func TestAllocateErrors(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/faa/allocate", `{"amount":1000}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/faa/allocate", `{"tickers":["SPY"],"amount":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, string(model.InvalidAmount), p.Kind)

	rec = do(t, h, http.MethodPost, "/api/faa/allocate", `{"tickers":["SPY","QQQ"],"amount":1000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	p = decodeProblem(t, rec)
	assert.Equal(t, string(model.MissingPrice), p.Kind)
	assert.Equal(t, []string{"QQQ"}, p.Tickers)

	rec = do(t, h, http.MethodPost, "/api/faa/allocate", `{"tickers":["SPY"],"amount":1000,"currency":"KRWX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/faa/allocate", `{"tickers":["SPY"],"amount":675000,"currency":"KRW"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plan model.AllocationPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, 500.0, plan.BaseAmount)
}

func TestExchangeRate(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/exchange-rate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rate model.ExchangeRate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rate))
	assert.Equal(t, "KRW", rate.Quote)
	assert.Equal(t, 1350.0, rate.Rate)

	rec = do(t, h, http.MethodGet, "/api/exchange-rate?currency=eur", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/exchange-rate?currency=12", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, map[string]interface{}{"yahoo": "closed"}, health["breakers"])

	rec = do(t, h, http.MethodGet, "/api/faa/evaluations/latest", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/faa/evaluations?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/faa/evaluations", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/faa/catalog", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"SPY"`)

	rec = do(t, h, http.MethodGet, "/api/faa/preferences", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "faa_http_requests_total")
}
