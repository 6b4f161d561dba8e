package pipeline

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docpress/internal/history"
)

// Outcome is the typed enumeration of final run result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what a run produced.
type Report struct {
	RunID     string
	Start     time.Time
	End       time.Time
	Converted int // markdown pages written
	Copied    int // assets copied verbatim
	Skipped   int // files left alone (filtered, existing output, failed)
	TOCs      int // toc files written, all formats
	PDFs      int
	Warnings  int // reports received by the run's sink
	// Files lists every source file the run looked at, relative to the source root.
	Files          []history.FileRecord
	StageDurations map[StageName]time.Duration
	Outcome        Outcome
}

func newReport(runID string) *Report {
	return &Report{
		RunID:          runID,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

func (r *Report) finish(canceled bool) {
	r.End = time.Now()
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.Warnings > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Summary returns a single-line human readable summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("converted=%d copied=%d skipped=%d tocs=%d pdfs=%d warnings=%d duration=%s outcome=%s",
		r.Converted, r.Copied, r.Skipped, r.TOCs, r.PDFs, r.Warnings, dur.Truncate(time.Millisecond), r.Outcome)
}

// Run converts the report into a history ledger entry.
func (r *Report) Run(source, destination string) history.Run {
	return history.Run{
		ID:          r.RunID,
		StartedAt:   r.Start,
		FinishedAt:  r.End,
		Source:      source,
		Destination: destination,
		Outcome:     string(r.Outcome),
		Converted:   r.Converted,
		Copied:      r.Copied,
		Skipped:     r.Skipped,
		Warnings:    r.Warnings,
	}
}
