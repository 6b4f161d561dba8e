// Package diag collects the recoverable problems reported while a run
// processes documents.
package diag

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/metrics"
	"git.home.luguber.info/inful/docpress/internal/observability"
)

// Sink receives per-item problems. Reporting never fails and never aborts
// the caller; the item that caused the problem is skipped or kept literal.
type Sink interface {
	Report(ctx context.Context, err *errors.ClassifiedError)
}

// Discard drops every report.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(context.Context, *errors.ClassifiedError) {}

// Collector stores reports in memory.
type Collector struct {
	mu      sync.Mutex
	entries []*errors.ClassifiedError
}

// NewCollector returns an empty collector.
func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Report(_ context.Context, err *errors.ClassifiedError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, err)
}

// Entries returns the reports in arrival order.
func (c *Collector) Entries() []*errors.ClassifiedError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*errors.ClassifiedError, len(c.entries))
	copy(out, c.entries)
	return out
}

// Count returns the number of reports of the given category, or of all
// categories when category is empty.
func (c *Collector) Count(category errors.ErrorCategory) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if category == "" {
		return len(c.entries)
	}
	n := 0
	for _, e := range c.entries {
		if e.Category() == category {
			n++
		}
	}
	return n
}

// LogSink logs every report through slog and counts it on the recorder.
// Reports are also kept so the run summary can list them.
type LogSink struct {
	Collector
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewLogSink builds a sink that logs at the level matching each report's severity.
func NewLogSink(logger *slog.Logger, recorder metrics.Recorder) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &LogSink{logger: logger, recorder: recorder}
}

func (s *LogSink) Report(ctx context.Context, err *errors.ClassifiedError) {
	s.Collector.Report(ctx, err)
	s.recorder.IncWarning(string(err.Category()))

	observability.Log(ctx, s.logger, levelFor(err.Severity()), err.Message(), err.LogAttrs()...)
}

func levelFor(severity errors.ErrorSeverity) slog.Level {
	switch severity {
	case errors.SeverityInfo:
		return slog.LevelInfo
	case errors.SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
