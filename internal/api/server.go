// Package api exposes the FAA service over JSON HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"FAASentinel/internal/collector"
	"FAASentinel/internal/exporter"
	"FAASentinel/internal/metrics"
	"FAASentinel/internal/model"
	"FAASentinel/internal/service"
)

// Server serves the FAA HTTP API.
type Server struct {
	svc      *service.Service
	metrics  *metrics.Registry
	guards   []*collector.Guard
	validate *validator.Validate
}

// NewServer creates a Server. guards are reported by /healthz.
func NewServer(svc *service.Service, reg *metrics.Registry, guards ...*collector.Guard) *Server {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{svc: svc, metrics: reg, guards: guards, validate: v}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/exchange-rate", s.exchangeRate)
		r.Route("/faa", func(r chi.Router) {
			r.Post("/evaluate", s.evaluate)
			r.Post("/allocate", s.allocate)
			r.Get("/evaluations", s.evaluations)
			r.Get("/evaluations/latest", s.latest)
			r.Get("/evaluations/latest.xlsx", s.latestXLSX)
			r.Get("/preferences", s.preferences)
			r.Get("/catalog", s.catalog)
		})
	})
	return r
}

// HTTPServer returns an http.Server serving Routes on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// observe records request metrics under the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(route, r.Method, strconv.Itoa(status), time.Since(start))
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := toProblem(err, r.URL.Path)
	if p.Status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
	} else {
		log.Printf("[WARN] %s %s: %v", r.Method, r.URL.Path, err)
	}
	render.Render(w, r, p)
}

func (s *Server) decode(r *http.Request, dst interface{}) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", service.ErrInvalidRequest, err)
	}
	return s.validate.Struct(dst)
}

type evaluateRequest struct {
	Tickers     []string `json:"tickers" validate:"omitempty,dive,required,max=12"`
	IncludeCash *bool    `json:"include_cash"`
	TopN        int      `json:"top_n" validate:"gte=0"`
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ev, err := s.svc.Evaluate(r.Context(), service.EvaluateRequest{
		Tickers:     req.Tickers,
		IncludeCash: req.IncludeCash,
		TopN:        req.TopN,
		Trigger:     model.TriggerAPI,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, ev)
}

type allocateRequest struct {
	EvaluationID string   `json:"evaluation_id"`
	Tickers      []string `json:"tickers" validate:"omitempty,dive,required,max=12"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (s *Server) allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.svc.Allocate(r.Context(), service.AllocateRequest{
		EvaluationID: req.EvaluationID,
		Tickers:      req.Tickers,
		Amount:       req.Amount,
		Currency:     req.Currency,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, plan)
}

func (s *Server) exchangeRate(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "KRW"
	}
	if err := s.validate.Var(currency, "len=3,alpha"); err != nil {
		s.fail(w, r, err)
		return
	}
	rate, err := s.svc.ExchangeRate(r.Context(), currency)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, rate)
}

func (s *Server) evaluations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.fail(w, r, fmt.Errorf("%w: limit must be between 1 and 500", service.ErrInvalidRequest))
			return
		}
		limit = n
	}
	items, err := s.svc.History(limit)
	if err != nil {
		s.fail(w, r, fmt.Errorf("load history: %w", err))
		return
	}
	render.JSON(w, r, map[string]interface{}{"evaluations": items, "count": len(items)})
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	ev := s.svc.LastEvaluation()
	if ev == nil {
		s.fail(w, r, service.ErrNoEvaluation)
		return
	}
	render.JSON(w, r, ev)
}

func (s *Server) latestXLSX(w http.ResponseWriter, r *http.Request) {
	ev := s.svc.LastEvaluation()
	if ev == nil {
		s.fail(w, r, service.ErrNoEvaluation)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="faa-%s.xlsx"`, ev.EvaluatedAt.Format("20060102")))
	if err := exporter.Write(w, ev, nil); err != nil {
		log.Printf("[ERROR] export evaluation %s: %v", ev.ID, err)
	}
}

func (s *Server) preferences(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.svc.Preferences())
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, model.Catalog)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	breakers := make(map[string]string, len(s.guards))
	status := "ok"
	for _, g := range s.guards {
		state := g.State()
		breakers[g.Name()] = state
		if state != "closed" {
			status = "degraded"
		}
	}
	render.JSON(w, r, map[string]interface{}{
		"status":   status,
		"breakers": breakers,
		"time":     time.Now().UTC(),
	})
}
