// Package metrics defines observability hooks for generation runs. Components
// receive a Recorder by injection; NoopRecorder is the default so callers
// never need nil checks.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for generation runs. Implementations
// may forward to Prometheus or stay in memory for tests.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|warning|failed|canceled
	AddRecords(origin string, n int)
	IncDiagnostic(kind string)
	IncLinkOutcome(resolved bool)
	SetModelSize(symbols, excluded int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) AddRecords(string, int)                     {}
func (NoopRecorder) IncDiagnostic(string)                       {}
func (NoopRecorder) IncLinkOutcome(bool)                        {}
func (NoopRecorder) SetModelSize(int, int)                      {}
