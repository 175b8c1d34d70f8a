package recorder

import (
	"time"

	"FAASentinel/internal/model"
)

// EvaluationSummary is one row of the evaluation history.
type EvaluationSummary struct {
	ID          string
	Trigger     model.TriggerType
	Tickers     []string
	Selected    []string // allocations in rank order, "CASH" for vetoed slots
	CashShare   float64
	EvaluatedAt time.Time
}

// Recorder persists evaluation cycles and allocation plans for later analysis.
type Recorder interface {
	RecordEvaluation(ev *model.Evaluation) error
	RecordAllocation(evalID string, plan *model.AllocationPlan) error
	RecentEvaluations(limit int) ([]EvaluationSummary, error)
	Close() error
}
