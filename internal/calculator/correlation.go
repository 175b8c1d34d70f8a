package calculator

import (
	"fmt"
	"math"

	"FAASentinel/internal/model"
)

// PairwiseCorrelation computes the Pearson coefficient of two equal-length return series.
// A series with zero variance correlates 0 with anything.
func PairwiseCorrelation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, model.NewDataError(model.LengthMismatch, "return series lengths differ: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return 0, model.NewDataError(model.InsufficientData, "at least 2 data points required for correlation, got %d", len(a))
	}

	if isConstant(a) || isConstant(b) {
		return 0, nil
	}

	meanA, meanB := mean(a), mean(b)
	var numerator, sumSqA, sumSqB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		numerator += da * db
		sumSqA += da * da
		sumSqB += db * db
	}

	if sumSqA == 0 || sumSqB == 0 {
		return 0, nil
	}

	r := numerator / math.Sqrt(sumSqA*sumSqB)
	// clamp rounding drift
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, nil
}

// CorrelationMatrix builds the symmetric N×N matrix of pairwise correlations.
// The diagonal is fixed at 1.0 and never computed.
func CorrelationMatrix(series [][]float64) ([][]float64, error) {
	n := len(series)
	if n < 2 {
		return nil, model.NewDataError(model.InsufficientUniverse, "at least 2 assets required for correlation, got %d", n)
	}
	for i := 1; i < n; i++ {
		if len(series[i]) != len(series[0]) {
			return nil, model.NewDataError(model.LengthMismatch, "series %d has %d returns, series 0 has %d", i, len(series[i]), len(series[0]))
		}
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c, err := PairwiseCorrelation(series[i], series[j])
			if err != nil {
				return nil, err
			}
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix, nil
}

// AggregateCorrelation combines the correlations of series[index] with every other series.
func AggregateCorrelation(index int, series [][]float64, policy model.AggregationPolicy) (float64, error) {
	if index < 0 || index >= len(series) {
		return 0, model.NewDataError(model.InvalidIndex, "asset index %d out of range [0,%d)", index, len(series))
	}
	if len(series) < 2 {
		return 0, model.NewDataError(model.InsufficientUniverse, "at least 2 assets required for correlation, got %d", len(series))
	}

	correlations := make([]float64, 0, len(series)-1)
	for j := range series {
		if j == index {
			continue
		}
		c, err := PairwiseCorrelation(series[index], series[j])
		if err != nil {
			return 0, err
		}
		correlations = append(correlations, c)
	}
	return aggregate(correlations, policy)
}

// AggregateRow applies the same aggregation to a precomputed matrix row, skipping the diagonal.
func AggregateRow(index int, matrix [][]float64, policy model.AggregationPolicy) (float64, error) {
	if index < 0 || index >= len(matrix) {
		return 0, model.NewDataError(model.InvalidIndex, "asset index %d out of range [0,%d)", index, len(matrix))
	}
	if len(matrix) < 2 {
		return 0, model.NewDataError(model.InsufficientUniverse, "at least 2 assets required for correlation, got %d", len(matrix))
	}
	correlations := make([]float64, 0, len(matrix)-1)
	for j, c := range matrix[index] {
		if j != index {
			correlations = append(correlations, c)
		}
	}
	return aggregate(correlations, policy)
}

func aggregate(correlations []float64, policy model.AggregationPolicy) (float64, error) {
	sum := 0.0
	for _, c := range correlations {
		sum += c
	}
	switch policy {
	case model.AggregateSum:
		return sum, nil
	case model.AggregateMean:
		return sum / float64(len(correlations)), nil
	default:
		return 0, fmt.Errorf("unknown aggregation policy %q", policy)
	}
}
