package calculator

import (
	"math"

	"FAASentinel/internal/model"
)

// Volatility computes the population standard deviation (divide by N) of daily returns.
func Volatility(returns []float64) (float64, error) {
	if len(returns) < 1 {
		return 0, model.NewDataError(model.InsufficientData, "at least 1 return required")
	}
	if isConstant(returns) {
		return 0, nil
	}
	m := mean(returns)
	variance := 0.0
	for _, r := range returns {
		d := r - m
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance), nil
}

// VolatilityOf derives daily returns from bars and returns their volatility.
func VolatilityOf(bars []model.PricePoint) (float64, error) {
	returns, err := DailyReturns(bars)
	if err != nil {
		return 0, err
	}
	return Volatility(returns)
}
