package calculator

import "FAASentinel/internal/model"

// Momentum returns the trailing total return over the window:
// (close[last] - close[first]) / close[first].
func Momentum(bars []model.PricePoint) (float64, error) {
	if len(bars) < 2 {
		return 0, model.NewDataError(model.InsufficientData, "at least 2 data points required, got %d", len(bars))
	}
	start := bars[0].Close
	latest := bars[len(bars)-1].Close
	if start == 0 {
		return 0, model.NewDataError(model.ZeroPrice, "start price cannot be zero")
	}
	return (latest - start) / start, nil
}
