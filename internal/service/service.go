package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"FAASentinel/internal/collector"
	"FAASentinel/internal/config"
	"FAASentinel/internal/fund"
	"FAASentinel/internal/metrics"
	"FAASentinel/internal/model"
	"FAASentinel/internal/recorder"
	"FAASentinel/internal/strategy"
)

var (
	// ErrInvalidRequest marks caller input that fails validation before any fetch.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoEvaluation means an allocation was requested without a usable evaluation.
	ErrNoEvaluation = errors.New("no evaluation available")
)

// EvaluateRequest overrides the remembered universe for one cycle.
// Zero values fall back to preferences and configuration.
type EvaluateRequest struct {
	Tickers     []string
	IncludeCash *bool
	TopN        int
	Trigger     model.TriggerType
}

// AllocateRequest asks for a purchase plan. Tickers, when given, are bought as-is;
// otherwise the selection of the last evaluation is used.
type AllocateRequest struct {
	EvaluationID string
	Tickers      []string
	Amount       float64
	Currency     string
}

// Service runs evaluation cycles and allocation requests end to end.
type Service struct {
	cfg       *config.Config
	collector *collector.Collector
	rates     collector.RateFetcher
	fundMgr   *fund.Manager
	recorder  recorder.Recorder
	metrics   *metrics.Registry
	now       func() time.Time
}

// New creates a Service. rec and reg may be nil.
func New(cfg *config.Config, col *collector.Collector, rates collector.RateFetcher,
	fundMgr *fund.Manager, rec recorder.Recorder, reg *metrics.Registry) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		cfg:       cfg,
		collector: col,
		rates:     rates,
		fundMgr:   fundMgr,
		recorder:  rec,
		metrics:   reg,
		now:       time.Now,
	}
}

// Evaluate collects the universe, runs the FAA engine and records the result.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (ev *model.Evaluation, err error) {
	started := time.Now()
	if req.Trigger == "" {
		req.Trigger = model.TriggerManual
	}
	defer func() {
		var cash float64
		if ev != nil {
			cash = ev.CashShare
		}
		s.metrics.ObserveEvaluation(string(req.Trigger), started, cash, err)
	}()

	tickers, engineCfg, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Evaluating %s (trigger=%s, top_n=%d, include_cash=%v)",
		strings.Join(tickers, ","), req.Trigger, engineCfg.TopN, engineCfg.IncludeCash)

	histories, err := s.collector.CollectUniverse(ctx, tickers)
	if err != nil {
		var fe *model.FetchError
		if errors.As(err, &fe) {
			s.metrics.AddFetchFailures("history", len(fe.Failures))
		}
		return nil, err
	}

	ev, err = strategy.Evaluate(histories, engineCfg)
	if err != nil {
		return nil, err
	}
	ev.ID = uuid.NewString()
	ev.Trigger = req.Trigger
	ev.EvaluatedAt = s.now()

	s.fundMgr.SetUniverse(tickers, engineCfg.IncludeCash)
	s.fundMgr.RecordEvaluation(ev)
	if err := s.recorder.RecordEvaluation(ev); err != nil {
		log.Printf("[WARN] failed to record evaluation %s: %v", ev.ID, err)
	}

	log.Printf("[INFO] Evaluation %s selected %s (cash share %.1f%%)", ev.ID, selectionSummary(ev.Selected), ev.CashShare)
	return ev, nil
}

func (s *Service) resolve(req EvaluateRequest) ([]string, model.EngineConfig, error) {
	prefs := s.fundMgr.Preferences()
	engineCfg := s.cfg.Engine()

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = prefs.Tickers
		engineCfg.IncludeCash = prefs.IncludeCash
	}
	if req.IncludeCash != nil {
		engineCfg.IncludeCash = *req.IncludeCash
	}
	if req.TopN != 0 {
		engineCfg.TopN = req.TopN
	}
	if len(tickers) == 0 {
		return nil, engineCfg, fmt.Errorf("%w: no tickers configured", ErrInvalidRequest)
	}

	normalized := make([]string, len(tickers))
	for i, t := range tickers {
		normalized[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if err := config.ValidateUniverse(normalized, s.cfg.Universe.Size, engineCfg.CashTicker, engineCfg.IncludeCash); err != nil {
		return nil, engineCfg, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return normalized, engineCfg, nil
}

// Allocate turns a selection into an equal-weight purchase plan priced at live quotes.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (plan *model.AllocationPlan, err error) {
	defer func() { s.metrics.ObserveAllocation(err) }()

	if req.Amount <= 0 {
		return nil, model.NewAllocationError(model.InvalidAmount, nil, "amount must be positive, got %v", req.Amount)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.Allocation.BaseCurrency
	}

	selected, evalID, err := s.selection(req)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64)
	var toQuote []string
	for _, t := range fund.InvestableTickers(selected) {
		if s.isRiskless(selected, t) {
			// the synthetic cash candidate is held at par
			prices[t] = 1
			continue
		}
		toQuote = append(toQuote, t)
	}
	if len(toQuote) > 0 {
		quotes, qerr := s.collector.CollectQuotes(ctx, toQuote)
		var fe *model.FetchError
		switch {
		case errors.As(qerr, &fe):
			s.metrics.AddFetchFailures("quote", len(fe.Failures))
		case qerr != nil:
			return nil, fmt.Errorf("collect quotes: %w", qerr)
		}
		for t, q := range quotes {
			prices[t] = q.Price
		}
	}

	var rate float64
	if currency != s.cfg.Allocation.BaseCurrency {
		r, err := s.ExchangeRate(ctx, currency)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(r.Base, s.cfg.Allocation.BaseCurrency) {
			return nil, model.NewAllocationError(model.InvalidRate, nil,
				"rate table base %s does not match base currency %s", r.Base, s.cfg.Allocation.BaseCurrency)
		}
		rate = r.Rate
	}

	plan, err = fund.Plan(fund.PlanRequest{
		Selected:     selected,
		Prices:       prices,
		Amount:       req.Amount,
		Currency:     currency,
		BaseCurrency: s.cfg.Allocation.BaseCurrency,
		Rate:         rate,
	})
	if err != nil {
		return nil, err
	}
	plan.PlannedAt = s.now()

	s.fundMgr.SetPurchase(req.Amount, currency)
	if err := s.recorder.RecordAllocation(evalID, plan); err != nil {
		log.Printf("[WARN] failed to record allocation: %v", err)
	}
	return plan, nil
}

func (s *Service) selection(req AllocateRequest) ([]model.SelectedAsset, string, error) {
	if len(req.Tickers) > 0 {
		selected := make([]model.SelectedAsset, len(req.Tickers))
		for i, t := range req.Tickers {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" {
				return nil, "", fmt.Errorf("%w: blank ticker at position %d", ErrInvalidRequest, i+1)
			}
			selected[i] = model.SelectedAsset{Ticker: t, Allocation: t, Rank: i + 1}
		}
		return selected, "", nil
	}

	last := s.fundMgr.LastEvaluation()
	if last == nil {
		return nil, "", fmt.Errorf("%w: run an evaluation first", ErrNoEvaluation)
	}
	if req.EvaluationID != "" && req.EvaluationID != last.ID {
		return nil, "", fmt.Errorf("%w: evaluation %s is not the latest", ErrNoEvaluation, req.EvaluationID)
	}
	return last.Selected, last.ID, nil
}

func (s *Service) isRiskless(selected []model.SelectedAsset, ticker string) bool {
	for _, a := range selected {
		if a.Ticker == ticker && a.Metrics.Riskless {
			return true
		}
	}
	return false
}

// ExchangeRate returns the number of quote units per base-currency unit.
func (s *Service) ExchangeRate(ctx context.Context, quote string) (*model.ExchangeRate, error) {
	if s.rates == nil {
		return nil, fmt.Errorf("%w: currency conversion is not configured", ErrInvalidRequest)
	}
	r, err := s.rates.FetchRate(ctx, quote)
	if err != nil {
		s.metrics.AddFetchFailures("fx", 1)
		return nil, &model.FetchError{Failures: map[string]error{strings.ToUpper(quote): err}}
	}
	return r, nil
}

// LastEvaluation returns the most recent evaluation of this process, or nil.
func (s *Service) LastEvaluation() *model.Evaluation {
	return s.fundMgr.LastEvaluation()
}

// Preferences returns the remembered user choices.
func (s *Service) Preferences() model.Preferences {
	return s.fundMgr.Preferences()
}

// SetUniverse validates and remembers the tickers for future cycles.
func (s *Service) SetUniverse(tickers []string, includeCash bool) error {
	normalized, _, err := s.resolve(EvaluateRequest{Tickers: tickers, IncludeCash: &includeCash})
	if err != nil {
		return err
	}
	s.fundMgr.SetUniverse(normalized, includeCash)
	return nil
}

// ResetPreferences forgets the remembered universe, amount and last evaluation.
func (s *Service) ResetPreferences() {
	s.fundMgr.Reset()
	log.Println("[INFO] preferences reset")
}

// History returns the most recent recorded evaluations.
func (s *Service) History(limit int) ([]recorder.EvaluationSummary, error) {
	return s.recorder.RecentEvaluations(limit)
}

func selectionSummary(selected []model.SelectedAsset) string {
	parts := make([]string, len(selected))
	for i, a := range selected {
		if a.IsCash() {
			parts[i] = a.Ticker + "→CASH"
		} else {
			parts[i] = a.Ticker
		}
	}
	return strings.Join(parts, ", ")
}
