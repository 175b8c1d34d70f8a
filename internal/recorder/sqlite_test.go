package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FAASentinel/internal/model"
)

func sampleEvaluation(id string, at time.Time) *model.Evaluation {
	return &model.Evaluation{
		ID:      id,
		Tickers: []string{"SPY", "TLT", "GLD"},
		Metrics: []model.AssetMetrics{
			{Ticker: "SPY", Momentum: 0.1, Volatility: 0.01, Correlation: 0.2, MomentumRank: 1, VolatilityRank: 2, CorrelationRank: 3, WeightedScore: 3.5},
			{Ticker: "TLT", Momentum: -0.02, Volatility: 0.008, Correlation: -0.1, MomentumRank: 3, VolatilityRank: 1, CorrelationRank: 1, WeightedScore: 4},
			{Ticker: "GLD", Momentum: 0.05, Volatility: 0.012, Correlation: 0.1, MomentumRank: 2, VolatilityRank: 3, CorrelationRank: 2, WeightedScore: 4.5},
		},
		Selected: []model.SelectedAsset{
			{Ticker: "SPY", Allocation: "SPY", Rank: 1},
			{Ticker: "TLT", Allocation: model.CashAllocation, Rank: 2},
		},
		CashShare:   50,
		Config:      model.DefaultEngineConfig(),
		Trigger:     model.TriggerManual,
		EvaluatedAt: at,
	}
}

func TestSQLiteRecorder_EvaluationsRoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "faa.db"))
	require.NoError(t, err)
	defer r.Close()

	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordEvaluation(sampleEvaluation("e1", base)))
	require.NoError(t, r.RecordEvaluation(sampleEvaluation("e2", base.AddDate(0, 1, 0))))

	got, err := r.RecentEvaluations(10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e2", got[0].ID, "newest first")
	assert.Equal(t, model.TriggerManual, got[0].Trigger)
	assert.Equal(t, []string{"SPY", "TLT", "GLD"}, got[0].Tickers)
	assert.Equal(t, []string{"SPY", "CASH"}, got[0].Selected)
	assert.Equal(t, 50.0, got[0].CashShare)

	limited, err := r.RecentEvaluations(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_DuplicateEvaluationRollsBack(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "faa.db"))
	require.NoError(t, err)
	defer r.Close()

	ev := sampleEvaluation("dup", time.Now())
	require.NoError(t, r.RecordEvaluation(ev))
	assert.Error(t, r.RecordEvaluation(ev))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM asset_metrics WHERE evaluation_id = 'dup'`).Scan(&n))
	assert.Equal(t, 3, n, "failed insert must not leave partial metrics")
}

func TestSQLiteRecorder_RecordAllocation(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "faa.db"))
	require.NoError(t, err)
	defer r.Close()

	plan := &model.AllocationPlan{
		Currency:     "KRW",
		BaseCurrency: "USD",
		InputAmount:  1350000,
		ExchangeRate: 1350,
		BaseAmount:   1000,
		Allocations: []model.PurchaseAllocation{
			{Ticker: "SPY", CurrentPrice: 500, Shares: 1, Amount: 500, PercentageOfTotal: 50},
			{Ticker: "GLD", CurrentPrice: 250, Shares: 2, Amount: 500, PercentageOfTotal: 50},
		},
		CashSlots: 1,
	}
	require.NoError(t, r.RecordAllocation("", plan))

	var items int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM allocation_items`).Scan(&items))
	assert.Equal(t, 2, items)

	var evalID *string
	require.NoError(t, r.db.QueryRow(`SELECT evaluation_id FROM allocations`).Scan(&evalID))
	assert.Nil(t, evalID)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordEvaluation(&model.Evaluation{}))
	got, err := r.RecentEvaluations(5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, r.Close())
}
