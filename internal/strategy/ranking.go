package strategy

import (
	"sort"

	"FAASentinel/internal/model"
)

// Rank fills in the three metric ranks and the weighted score of every asset.
// Momentum ranks descending, volatility and correlation ascending; rank 1 is best.
// Ties keep input order. The input slice is not modified.
func Rank(metrics []model.AssetMetrics, w model.Weights, mode model.ScoringMode) []model.AssetMetrics {
	out := make([]model.AssetMetrics, len(metrics))
	copy(out, metrics)
	if len(out) == 0 {
		return out
	}

	momentumRanks := assignRanks(len(out), func(i, j int) bool { return out[i].Momentum > out[j].Momentum })
	volatilityRanks := assignRanks(len(out), func(i, j int) bool { return out[i].Volatility < out[j].Volatility })
	correlationRanks := assignRanks(len(out), func(i, j int) bool { return out[i].Correlation < out[j].Correlation })

	for i := range out {
		out[i].MomentumRank = momentumRanks[i]
		out[i].VolatilityRank = volatilityRanks[i]
		out[i].CorrelationRank = correlationRanks[i]
		out[i].WeightedScore = weightedScore(out[i], w, mode)
	}
	return out
}

// assignRanks returns 1-based ranks of n items ordered by less, stable on input order.
func assignRanks(n int, less func(i, j int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return less(order[a], order[b]) })

	ranks := make([]int, n)
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// weightedScore combines ranks (lower is better) or raw metrics (higher is better).
func weightedScore(m model.AssetMetrics, w model.Weights, mode model.ScoringMode) float64 {
	if mode == model.ScoringRaw {
		return m.Momentum*w.Momentum + m.Volatility*w.Volatility + m.Correlation*w.Correlation
	}
	return float64(m.MomentumRank)*w.Momentum +
		float64(m.VolatilityRank)*w.Volatility +
		float64(m.CorrelationRank)*w.Correlation
}

// better reports whether score a beats score b under mode.
func better(a, b float64, mode model.ScoringMode) bool {
	if mode == model.ScoringRaw {
		return a > b
	}
	return a < b
}
