package model

// AssetMetrics holds the raw FAA metrics and derived ranks for one asset.
type AssetMetrics struct {
	Ticker          string  `json:"ticker"`
	Momentum        float64 `json:"momentum"`
	Volatility      float64 `json:"volatility"`
	Correlation     float64 `json:"correlation"` // aggregate against the rest of the universe
	MomentumRank    int     `json:"momentum_rank"`
	VolatilityRank  int     `json:"volatility_rank"`
	CorrelationRank int     `json:"correlation_rank"`
	WeightedScore   float64 `json:"weighted_score"`
	Riskless        bool    `json:"riskless,omitempty"` // synthetic cash candidate
}

// CorrelationMatrix is an N×N grid aligned with Tickers.
type CorrelationMatrix struct {
	Tickers []string    `json:"tickers"`
	Values  [][]float64 `json:"values"`
}

// At returns the correlation between tickers i and j.
func (m CorrelationMatrix) At(i, j int) float64 {
	return m.Values[i][j]
}
