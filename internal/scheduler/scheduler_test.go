package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FAASentinel/internal/collector"
	"FAASentinel/internal/config"
	"FAASentinel/internal/fund"
	"FAASentinel/internal/model"
	"FAASentinel/internal/recorder"
	"FAASentinel/internal/service"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return f.err
}

func newScheduler(t *testing.T) (*Scheduler, *fakeSender) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Universe.Size = 7
	cfg.Universe.CashTicker = "USD"
	cfg.Universe.LookbackMonths = 4
	cfg.Scoring.Mode = string(model.ScoringRank)
	cfg.Scoring.Aggregation = string(model.AggregateMean)
	cfg.Scoring.TopN = 3
	cfg.Scoring.Weights = model.DefaultWeights
	cfg.Allocation.BaseCurrency = "USD"

	f := &collector.MockFetcher{
		Closes: map[string][]float64{
			"A": {100, 102, 101, 105, 107, 110},
			"B": {100, 99, 100, 97, 96, 95},
			"C": {50, 51, 50, 52, 51, 53},
			"D": {20, 20, 21, 21, 22, 22},
			"E": {80, 79, 81, 80, 82, 83},
			"F": {10, 10, 10, 10, 10, 10},
			"G": {30, 31, 30, 29, 30, 31},
		},
		Prices: map[string]float64{"A": 110, "B": 95, "C": 53, "D": 22, "E": 83, "F": 10, "G": 31},
	}

	dir := t.TempDir()
	mgr, err := fund.NewManager(filepath.Join(dir, "prefs.json"), model.Preferences{Currency: "USD"})
	require.NoError(t, err)
	svc := service.New(cfg, collector.NewCollector(f, 4), nil, mgr, recorder.NewNoopRecorder(), nil)

	sender := &fakeSender{}
	return NewScheduler(context.Background(), svc, sender), sender
}

func TestRegisterAll(t *testing.T) {
	s, _ := newScheduler(t)
	require.NoError(t, s.RegisterAll("0 0 22 1 * *"))
	assert.Len(t, s.Cron.Entries(), 1)

	err := s.RegisterAll("not a cron")
	assert.ErrorContains(t, err, "register evaluate task")
}

func TestRunEvaluateNow_WithoutUniverseSendsError(t *testing.T) {
	s, sender := newScheduler(t)
	s.RunEvaluateNow()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Evaluation failed")
}

func TestRunEvaluateNow_SendsReport(t *testing.T) {
	s, sender := newScheduler(t)
	require.NoError(t, s.Service.SetUniverse([]string{"A", "B", "C", "D", "E", "F", "G"}, false))
	sender.err = errors.New("telegram down")

	s.RunEvaluateNow()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "FAA Report")
	require.NotNil(t, s.Service.LastEvaluation())
	assert.Equal(t, model.TriggerScheduled, s.Service.LastEvaluation().Trigger)
}

func TestHandleCommand(t *testing.T) {
	s, _ := newScheduler(t)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/unknown"), "Available commands")
	assert.Contains(t, s.HandleCommand(ctx, ""), "Available commands")

	reply := s.HandleCommand(ctx, "/tickers a,b,c")
	assert.Contains(t, reply, "Update tickers failed")

	reply = s.HandleCommand(ctx, "/tickers a,b,c,d e f g")
	assert.Contains(t, reply, "Tickers: A, B, C, D, E, F, G")
	assert.Contains(t, s.HandleCommand(ctx, "/prefs"), "Include cash: false")

	reply = s.HandleCommand(ctx, "/buy 1000")
	assert.Contains(t, reply, "Purchase plan failed")

	reply = s.HandleCommand(ctx, "/faa")
	assert.Contains(t, reply, "FAA Report")
	ev := s.Service.LastEvaluation()
	require.NotNil(t, ev)
	assert.Equal(t, model.TriggerManual, ev.Trigger)

	reply = s.HandleCommand(ctx, "/buy 3,000")
	assert.Contains(t, reply, "Purchase Plan")
	assert.Equal(t, 3000.0, s.Service.Preferences().Amount)

	assert.Contains(t, s.HandleCommand(ctx, "/buy lots"), "invalid amount")
	assert.Contains(t, s.HandleCommand(ctx, "/history"), "No evaluations")
	assert.Contains(t, s.HandleCommand(ctx, "/catalog"), "SPY")

	assert.Contains(t, s.HandleCommand(ctx, "/reset"), "Tickers: (none)")
	assert.Nil(t, s.Service.LastEvaluation())
}

func TestParseUniverse(t *testing.T) {
	tickers, cash := parseUniverse([]string{"spy,efa", " ", "Cash", "tlt"})
	assert.Equal(t, []string{"SPY", "EFA", "TLT"}, tickers)
	require.NotNil(t, cash)
	assert.True(t, *cash)

	_, cash = parseUniverse([]string{"SPY"})
	assert.Nil(t, cash)

	_, cash = parseUniverse([]string{"SPY", "NoCash"})
	require.NotNil(t, cash)
	assert.False(t, *cash)
}

func TestHandleCommand_TickersKeepsCashFlag(t *testing.T) {
	s, _ := newScheduler(t)
	ctx := context.Background()

	s.HandleCommand(ctx, "/tickers a,b,c,d,e,f,g cash")
	require.True(t, s.Service.Preferences().IncludeCash)

	reply := s.HandleCommand(ctx, "/tickers g,f,e,d,c,b,a")
	assert.Contains(t, reply, "Include cash: true")
	assert.True(t, s.Service.Preferences().IncludeCash)

	s.HandleCommand(ctx, "/tickers a,b,c,d,e,f,g nocash")
	assert.False(t, s.Service.Preferences().IncludeCash)
}
