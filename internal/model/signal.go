package model

import "time"

// CashAllocation is the allocation sentinel for a selected asset vetoed by negative momentum.
const CashAllocation = "CASH"

// TriggerType indicates what triggered an evaluation cycle.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerAPI       TriggerType = "API"
	TriggerCLI       TriggerType = "CLI"
)

// ScoringMode selects how the three metrics combine into WeightedScore.
type ScoringMode string

const (
	// ScoringRank sums weighted ranks; lower is better.
	ScoringRank ScoringMode = "rank"
	// ScoringRaw sums weighted raw metrics; higher is better.
	ScoringRaw ScoringMode = "raw"
)

// AggregationPolicy selects how pairwise correlations collapse into one scalar.
type AggregationPolicy string

const (
	AggregateMean AggregationPolicy = "mean"
	AggregateSum  AggregationPolicy = "sum"
)

// Weights are the per-metric multipliers of the composite score.
type Weights struct {
	Momentum    float64 `json:"momentum" yaml:"momentum"`
	Volatility  float64 `json:"volatility" yaml:"volatility"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
}

// DefaultWeights are the FAA weights 1.0 / 0.5 / 0.5.
var DefaultWeights = Weights{Momentum: 1.0, Volatility: 0.5, Correlation: 0.5}

// EngineConfig is the immutable per-cycle configuration of the engine.
type EngineConfig struct {
	Mode        ScoringMode       `json:"mode"`
	Aggregation AggregationPolicy `json:"aggregation"`
	Weights     Weights           `json:"weights"`
	TopN        int               `json:"top_n"`
	IncludeCash bool              `json:"include_cash"`
	CashTicker  string            `json:"cash_ticker"`
}

// DefaultEngineConfig returns the canonical FAA configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mode:        ScoringRank,
		Aggregation: AggregateMean,
		Weights:     DefaultWeights,
		TopN:        3,
		CashTicker:  "USD",
	}
}

// SelectedAsset is one of the top-N picks of a cycle.
type SelectedAsset struct {
	Ticker     string       `json:"ticker"`
	Metrics    AssetMetrics `json:"metrics"`
	Allocation string       `json:"allocation"` // Ticker or CashAllocation
	Rank       int          `json:"rank"`
}

// IsCash reports whether the slot was forced to CASH.
func (s SelectedAsset) IsCash() bool {
	return s.Allocation == CashAllocation
}

// Evaluation is the complete output of one evaluation cycle.
type Evaluation struct {
	ID          string            `json:"id"`
	Tickers     []string          `json:"tickers"`
	Metrics     []AssetMetrics    `json:"metrics"`
	Matrix      CorrelationMatrix `json:"correlation_matrix"`
	Selected    []SelectedAsset   `json:"selected"`
	CashShare   float64           `json:"cash_share"` // percent of selected slots forced to CASH
	Config      EngineConfig      `json:"config"`
	Trigger     TriggerType       `json:"trigger"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}
