package strategy

import (
	"fmt"

	"FAASentinel/internal/calculator"
	"FAASentinel/internal/model"
)

// Evaluate runs one FAA cycle over an already-resolved universe of aligned histories.
// Any data error for any ticker aborts the cycle. ID, trigger and timestamps are left
// for the caller to stamp.
func Evaluate(histories []model.PriceHistory, cfg model.EngineConfig) (*model.Evaluation, error) {
	if len(histories) == 0 {
		return nil, model.NewSelectionError(model.EmptyUniverse, "no price histories provided")
	}

	// Step a: returns and momentum per asset
	u, err := buildUniverse(histories)
	if err != nil {
		return nil, err
	}
	if cfg.IncludeCash {
		u.addRiskless(cfg.CashTicker)
	}

	// Step b: co-movement
	matrix, err := calculator.CorrelationMatrix(u.returns)
	if err != nil {
		return nil, err
	}

	// Step c: raw metrics
	metrics, err := u.factors(matrix, cfg.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("compute factors: %w", err)
	}

	// Step d: ranks and composite score
	ranked := Rank(metrics, cfg.Weights, cfg.Mode)

	// Step e: selection with CASH veto
	selected, err := SelectTop(ranked, cfg.TopN, cfg.Mode)
	if err != nil {
		return nil, err
	}

	first := histories[0].Points
	return &model.Evaluation{
		Tickers:     u.tickers,
		Metrics:     ranked,
		Matrix:      model.CorrelationMatrix{Tickers: u.tickers, Values: matrix},
		Selected:    selected,
		CashShare:   CashShare(selected),
		Config:      cfg,
		WindowStart: first[0].Date,
		WindowEnd:   first[len(first)-1].Date,
	}, nil
}
