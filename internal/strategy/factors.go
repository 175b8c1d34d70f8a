package strategy

import (
	"errors"

	"FAASentinel/internal/calculator"
	"FAASentinel/internal/model"
)

// universe holds the per-asset inputs of one cycle, aligned by index.
type universe struct {
	tickers  []string
	returns  [][]float64
	momentum []float64
	riskless []bool
}

// buildUniverse validates every history and derives its returns and momentum.
// The first failing ticker aborts the whole cycle.
func buildUniverse(histories []model.PriceHistory) (*universe, error) {
	u := &universe{}
	for _, h := range histories {
		if err := calculator.ValidateHistory(h); err != nil {
			return nil, err
		}
		returns, err := calculator.DailyReturns(h.Points)
		if err != nil {
			return nil, attribute(err, h.Ticker)
		}
		momentum, err := calculator.Momentum(h.Points)
		if err != nil {
			return nil, attribute(err, h.Ticker)
		}
		if len(u.returns) > 0 && len(returns) != len(u.returns[0]) {
			return nil, model.NewDataError(model.LengthMismatch, "%d returns, expected %d (as %s)",
				len(returns), len(u.returns[0]), u.tickers[0]).WithTicker(h.Ticker)
		}
		u.tickers = append(u.tickers, h.Ticker)
		u.returns = append(u.returns, returns)
		u.momentum = append(u.momentum, momentum)
		u.riskless = append(u.riskless, false)
	}
	return u, nil
}

// addRiskless appends a synthetic all-zero return series so cash competes as a candidate.
func (u *universe) addRiskless(ticker string) {
	n := 0
	if len(u.returns) > 0 {
		n = len(u.returns[0])
	}
	u.tickers = append(u.tickers, ticker)
	u.returns = append(u.returns, make([]float64, n))
	u.momentum = append(u.momentum, 0)
	u.riskless = append(u.riskless, true)
}

// factors computes momentum, volatility and aggregate correlation for every asset.
func (u *universe) factors(matrix [][]float64, policy model.AggregationPolicy) ([]model.AssetMetrics, error) {
	metrics := make([]model.AssetMetrics, len(u.tickers))
	for i, ticker := range u.tickers {
		vol, err := calculator.Volatility(u.returns[i])
		if err != nil {
			return nil, attribute(err, ticker)
		}
		corr, err := calculator.AggregateRow(i, matrix, policy)
		if err != nil {
			return nil, attribute(err, ticker)
		}
		metrics[i] = model.AssetMetrics{
			Ticker:      ticker,
			Momentum:    u.momentum[i],
			Volatility:  vol,
			Correlation: corr,
			Riskless:    u.riskless[i],
		}
	}
	return metrics, nil
}

func attribute(err error, ticker string) error {
	var de *model.DataError
	if errors.As(err, &de) {
		return de.WithTicker(ticker)
	}
	return err
}
