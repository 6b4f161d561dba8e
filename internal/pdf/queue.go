package pdf

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/docpress/internal/diag"
	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
	"git.home.luguber.info/inful/docpress/internal/logfields"
)

// Job is one queued HTML to PDF conversion.
type Job struct {
	HTMLPath string
	PDFPath  string
}

// Queue collects PDF jobs during a run and renders them one at a time on a
// fixed interval once HTML and TOC generation are finished.
type Queue struct {
	renderer  Renderer
	interval  time.Duration
	overwrite bool
	sink      diag.Sink

	mu   sync.Mutex
	jobs []Job
}

// NewQueue creates a queue. A nil sink discards render failures.
func NewQueue(r Renderer, interval time.Duration, overwrite bool, sink diag.Sink) *Queue {
	if sink == nil {
		sink = diag.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Queue{renderer: r, interval: interval, overwrite: overwrite, sink: sink}
}

// Add queues htmlPath for conversion into pdfPath.
func (q *Queue) Add(htmlPath, pdfPath string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, Job{HTMLPath: htmlPath, PDFPath: pdfPath})
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *Queue) next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, true
}

// Drain renders every queued job, one per tick, and returns how many PDFs
// were written. Failures are reported to the sink and do not stop the queue.
// Drain returns early with ctx.Err() when ctx is canceled.
func (q *Queue) Drain(ctx context.Context) (int, error) {
	if q.Len() == 0 {
		return 0, nil
	}
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	written := 0
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-ticker.C:
		}
		job, ok := q.next()
		if !ok {
			return written, nil
		}
		if err := q.renderer.Render(ctx, job.HTMLPath, job.PDFPath, q.overwrite); err != nil {
			ce, isClassified := errors.AsClassified(err)
			if !isClassified {
				ce = errors.WrapError(err, errors.CategoryRender, "failed to generate PDF").Build()
			}
			q.sink.Report(ctx, ce.WithContext("file", job.HTMLPath))
			continue
		}
		written++
		slog.Info("Wrote PDF", logfields.File(job.PDFPath))
	}
}
