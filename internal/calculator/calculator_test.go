package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"FAASentinel/internal/model"
)

func barsFromCloses(closes ...float64) []model.PricePoint {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		bars[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func TestDailyReturns(t *testing.T) {
	returns, err := DailyReturns(barsFromCloses(100, 110, 99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-0.10) > 1e-12 || math.Abs(returns[1]+0.10) > 1e-12 {
		t.Errorf("unexpected returns %v", returns)
	}
}

func TestDailyReturns_Errors(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   error
	}{
		{"single point", []float64{100}, model.ErrInsufficientData},
		{"empty", nil, model.ErrInsufficientData},
		{"zero first", []float64{0, 10, 11}, model.ErrZeroPrice},
		{"zero middle", []float64{10, 0, 11}, model.ErrZeroPrice},
	}
	for _, tt := range tests {
		_, err := DailyReturns(barsFromCloses(tt.closes...))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestDailyReturns_ZeroLastCloseAllowed(t *testing.T) {
	returns, err := DailyReturns(barsFromCloses(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if returns[0] != -1 {
		t.Errorf("expected -1, got %v", returns[0])
	}
}

func TestValidateHistory(t *testing.T) {
	h := model.PriceHistory{Ticker: "SPY", Points: barsFromCloses(1, 2, 3)}
	if err := ValidateHistory(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.Points[2].Date = h.Points[1].Date
	err := ValidateHistory(h)
	if !errors.Is(err, model.ErrUnorderedDates) {
		t.Errorf("expected unordered dates, got %v", err)
	}
	var de *model.DataError
	if !errors.As(err, &de) || de.Ticker != "SPY" {
		t.Errorf("expected ticker attribution, got %v", err)
	}

	short := model.PriceHistory{Ticker: "TLT", Points: barsFromCloses(1)}
	if err := ValidateHistory(short); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}
}

func TestMomentum(t *testing.T) {
	m, err := Momentum(barsFromCloses(100, 110))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != 0.10 {
		t.Errorf("expected exactly 0.10, got %v", m)
	}

	m, err = Momentum(barsFromCloses(100, 130, 80, 95))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(m+0.05) > 1e-12 {
		t.Errorf("expected -0.05, got %v", m)
	}

	if _, err := Momentum(barsFromCloses(100)); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}
	if _, err := Momentum(barsFromCloses(0, 5)); !errors.Is(err, model.ErrZeroPrice) {
		t.Errorf("expected zero price, got %v", err)
	}
}

func TestVolatility_ConstantIsZero(t *testing.T) {
	v, err := VolatilityOf(barsFromCloses(50, 50, 50, 50, 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0.0 {
		t.Errorf("expected 0, got %v", v)
	}
}

func TestVolatility_PopulationEstimator(t *testing.T) {
	// mean 0.02, deviations ±0.01 → population std 0.01 (sample std would be ~0.01155)
	v, err := Volatility([]float64{0.01, 0.03, 0.01, 0.03})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(v-0.01) > 1e-12 {
		t.Errorf("expected 0.01, got %v", v)
	}

	single, err := Volatility([]float64{0.05})
	if err != nil || single != 0 {
		t.Errorf("single return: expected 0, got %v (%v)", single, err)
	}

	if _, err := Volatility(nil); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}
}

func TestPairwiseCorrelation(t *testing.T) {
	series := []float64{0.01, -0.02, 0.015, 0.003, -0.007}
	self, err := PairwiseCorrelation(series, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if self != 1.0 {
		t.Errorf("self correlation: expected 1.0, got %v", self)
	}

	negated := make([]float64, len(series))
	for i, r := range series {
		negated[i] = -r
	}
	anti, _ := PairwiseCorrelation(series, negated)
	if math.Abs(anti+1) > 1e-12 {
		t.Errorf("expected -1, got %v", anti)
	}

	constant := []float64{0, 0, 0, 0, 0}
	zero, err := PairwiseCorrelation(constant, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zero != 0 || math.IsNaN(zero) || math.IsInf(zero, 0) {
		t.Errorf("constant series: expected 0, got %v", zero)
	}
	both, _ := PairwiseCorrelation(constant, constant)
	if both != 0 {
		t.Errorf("two constant series: expected 0, got %v", both)
	}

	flat := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	other := []float64{0.01, 0.02, -0.05, 0.03, 0, 0.01, -0.02}
	if c, _ := PairwiseCorrelation(flat, other); c != 0 {
		t.Errorf("non-zero constant series: expected exactly 0, got %v", c)
	}
	if c, _ := PairwiseCorrelation(other, flat); c != 0 {
		t.Errorf("non-zero constant series (second arg): expected exactly 0, got %v", c)
	}
}

func TestVolatility_NonZeroConstantIsZero(t *testing.T) {
	v, err := Volatility([]float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("expected exactly 0, got %v", v)
	}
}

func TestPairwiseCorrelation_Errors(t *testing.T) {
	if _, err := PairwiseCorrelation([]float64{1, 2}, []float64{1, 2, 3}); !errors.Is(err, model.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
	if _, err := PairwiseCorrelation([]float64{1}, []float64{2}); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected insufficient data, got %v", err)
	}
}

func TestCorrelationMatrix_SymmetricUnitDiagonal(t *testing.T) {
	series := [][]float64{
		{0.01, 0.02, -0.01, 0.005},
		{0.02, 0.01, -0.02, 0.001},
		{0, 0, 0, 0},
		{-0.01, 0.03, 0.02, -0.004},
	}
	m, err := CorrelationMatrix(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range m {
		if m[i][i] != 1.0 {
			t.Errorf("diagonal [%d] = %v, expected 1.0", i, m[i][i])
		}
		for j := range m {
			if math.Abs(m[i][j]-m[j][i]) > 1e-9 {
				t.Errorf("asymmetric at [%d][%d]: %v vs %v", i, j, m[i][j], m[j][i])
			}
			if m[i][j] < -1 || m[i][j] > 1 {
				t.Errorf("out of range at [%d][%d]: %v", i, j, m[i][j])
			}
		}
	}
	if m[2][0] != 0 || m[0][2] != 0 {
		t.Errorf("constant series should correlate 0, got %v / %v", m[2][0], m[0][2])
	}
}

func TestCorrelationMatrix_Errors(t *testing.T) {
	if _, err := CorrelationMatrix([][]float64{{1, 2}}); !errors.Is(err, model.ErrInsufficientUniverse) {
		t.Errorf("expected insufficient universe, got %v", err)
	}
	if _, err := CorrelationMatrix([][]float64{{1, 2}, {1, 2, 3}}); !errors.Is(err, model.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
}

func TestAggregateCorrelation_Policies(t *testing.T) {
	series := [][]float64{
		{0.01, 0.02, -0.01, 0.005},
		{0.01, 0.02, -0.01, 0.005},
		{-0.01, -0.02, 0.01, -0.005},
	}
	sum, err := AggregateCorrelation(0, series, model.AggregateSum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(sum-0) > 1e-12 {
		t.Errorf("sum: expected 0 (1 + -1), got %v", sum)
	}

	m, _ := AggregateCorrelation(2, series, model.AggregateMean)
	if math.Abs(m+1) > 1e-12 {
		t.Errorf("mean: expected -1, got %v", m)
	}
	s, _ := AggregateCorrelation(2, series, model.AggregateSum)
	if math.Abs(s+2) > 1e-12 {
		t.Errorf("sum: expected -2, got %v", s)
	}

	matrix, _ := CorrelationMatrix(series)
	for i := range series {
		direct, _ := AggregateCorrelation(i, series, model.AggregateMean)
		row, _ := AggregateRow(i, matrix, model.AggregateMean)
		if math.Abs(direct-row) > 1e-12 {
			t.Errorf("asset %d: AggregateRow %v != AggregateCorrelation %v", i, row, direct)
		}
	}
}

func TestAggregateCorrelation_Errors(t *testing.T) {
	series := [][]float64{{1, 2}, {2, 1}}
	for _, idx := range []int{-1, 2} {
		if _, err := AggregateCorrelation(idx, series, model.AggregateMean); !errors.Is(err, model.ErrInvalidIndex) {
			t.Errorf("index %d: expected invalid index, got %v", idx, err)
		}
	}
	if _, err := AggregateCorrelation(0, [][]float64{{1, 2}}, model.AggregateMean); !errors.Is(err, model.ErrInsufficientUniverse) {
		t.Errorf("expected insufficient universe, got %v", err)
	}
	if _, err := AggregateCorrelation(0, series, "median"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
