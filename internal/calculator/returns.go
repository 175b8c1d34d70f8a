package calculator

import "FAASentinel/internal/model"

// DailyReturns converts bars into close-to-close returns; len(result) == len(bars)-1.
func DailyReturns(bars []model.PricePoint) ([]float64, error) {
	if len(bars) < 2 {
		return nil, model.NewDataError(model.InsufficientData, "at least 2 data points required, got %d", len(bars))
	}
	closes := extractCloses(bars)
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			return nil, model.NewDataError(model.ZeroPrice, "close at index %d cannot be zero", i-1)
		}
		returns[i-1] = (closes[i] - prev) / prev
	}
	return returns, nil
}

// ValidateHistory checks that a history is long enough and strictly increasing by date.
func ValidateHistory(h model.PriceHistory) error {
	if len(h.Points) < 2 {
		return model.NewDataError(model.InsufficientData, "at least 2 data points required, got %d", len(h.Points)).WithTicker(h.Ticker)
	}
	for i := 1; i < len(h.Points); i++ {
		if !h.Points[i].Date.After(h.Points[i-1].Date) {
			return model.NewDataError(model.UnorderedDates, "date at index %d (%s) does not follow %s",
				i, h.Points[i].Date.Format("2006-01-02"), h.Points[i-1].Date.Format("2006-01-02")).WithTicker(h.Ticker)
		}
	}
	return nil
}

func extractCloses(bars []model.PricePoint) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// isConstant reports whether every element equals the first. Centred sums
// of such a series pick up rounding noise, so callers check this first.
func isConstant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
