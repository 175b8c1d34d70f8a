package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus metrics of the FAA service.
// All methods are safe on a nil *Registry.
type Registry struct {
	reg *prometheus.Registry

	EvaluationDuration *prometheus.HistogramVec
	Evaluations        *prometheus.CounterVec
	Allocations        *prometheus.CounterVec
	FetchFailures      *prometheus.CounterVec
	CashShare          prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates a Registry with its own prometheus registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faa_evaluation_duration_seconds",
				Help:    "Duration of evaluation cycles including data collection",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"trigger"},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faa_evaluations_total",
				Help: "Evaluation cycles by trigger and result",
			},
			[]string{"trigger", "result"},
		),
		Allocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faa_allocations_total",
				Help: "Allocation requests by result",
			},
			[]string{"result"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faa_fetch_failures_total",
				Help: "Tickers whose upstream fetch failed",
			},
			[]string{"kind"},
		),
		CashShare: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "faa_cash_share_percent",
				Help: "Percent of selected slots forced to CASH in the last evaluation",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faa_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faa_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	r.reg.MustRegister(
		r.EvaluationDuration,
		r.Evaluations,
		r.Allocations,
		r.FetchFailures,
		r.CashShare,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

// ObserveEvaluation records one finished evaluation cycle.
func (r *Registry) ObserveEvaluation(trigger string, started time.Time, cashShare float64, err error) {
	if r == nil {
		return
	}
	r.EvaluationDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())
	r.Evaluations.WithLabelValues(trigger, result(err)).Inc()
	if err == nil {
		r.CashShare.Set(cashShare)
	}
}

// ObserveAllocation records one allocation request.
func (r *Registry) ObserveAllocation(err error) {
	if r == nil {
		return
	}
	r.Allocations.WithLabelValues(result(err)).Inc()
}

// AddFetchFailures counts failed tickers of one kind ("history", "quote", "fx").
func (r *Registry) AddFetchFailures(kind string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.FetchFailures.WithLabelValues(kind).Add(float64(n))
}

// ObserveHTTP records one served HTTP request.
func (r *Registry) ObserveHTTP(route, method, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, method, status).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry. A nil Registry gathers nothing.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
