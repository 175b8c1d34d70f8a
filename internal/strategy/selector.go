package strategy

import (
	"sort"

	"FAASentinel/internal/model"
)

// SelectTop picks the topN best-scored assets, ranked 1..topN.
// A pick with negative raw momentum is allocated to CASH instead of itself.
func SelectTop(metrics []model.AssetMetrics, topN int, mode model.ScoringMode) ([]model.SelectedAsset, error) {
	if len(metrics) == 0 {
		return nil, model.NewSelectionError(model.EmptyUniverse, "no assets provided for selection")
	}
	if topN < 1 || topN > len(metrics) {
		return nil, model.NewSelectionError(model.TopNOutOfRange, "topN (%d) must be between 1 and %d", topN, len(metrics))
	}

	sorted := make([]model.AssetMetrics, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return better(sorted[i].WeightedScore, sorted[j].WeightedScore, mode)
	})

	selected := make([]model.SelectedAsset, topN)
	for i, m := range sorted[:topN] {
		allocation := m.Ticker
		if m.Momentum < 0 {
			allocation = model.CashAllocation
		}
		selected[i] = model.SelectedAsset{
			Ticker:     m.Ticker,
			Metrics:    m,
			Allocation: allocation,
			Rank:       i + 1,
		}
	}
	return selected, nil
}

// CashShare returns the percentage (0-100) of selected slots forced to CASH.
func CashShare(selected []model.SelectedAsset) float64 {
	if len(selected) == 0 {
		return 0
	}
	cash := 0
	for _, s := range selected {
		if s.IsCash() {
			cash++
		}
	}
	return float64(cash) / float64(len(selected)) * 100
}
