package recorder

import "FAASentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(_ *model.Evaluation) error              { return nil }
func (n *NoopRecorder) RecordAllocation(_ string, _ *model.AllocationPlan) error { return nil }
func (n *NoopRecorder) RecentEvaluations(_ int) ([]EvaluationSummary, error)     { return nil, nil }
func (n *NoopRecorder) Close() error                                             { return nil }
