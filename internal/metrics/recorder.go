package metrics

import "time"

// ResultLabel enumerates per-file conversion outcomes for counters.
type ResultLabel string

const (
	ResultConverted ResultLabel = "converted"
	ResultSkipped   ResultLabel = "skipped"
	ResultCopied    ResultLabel = "copied"
	ResultFailed    ResultLabel = "failed"
)

// Recorder defines observability hooks for run and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncFileResult(result ResultLabel)
	IncTOCWritten(format string)
	IncWarning(category string)
	IncRunOutcome(outcome string) // success|warning|failed|canceled
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncFileResult(ResultLabel)                  {}
func (NoopRecorder) IncTOCWritten(string)                       {}
func (NoopRecorder) IncWarning(string)                          {}
func (NoopRecorder) IncRunOutcome(string)                       {}
