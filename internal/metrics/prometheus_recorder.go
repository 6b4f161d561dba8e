package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpress"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	fileResults   *prom.CounterVec
	tocsWritten   *prom.CounterVec
	warnings      *prom.CounterVec
	runOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the docpress collectors on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual run stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.fileResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Source files processed by outcome",
	}, []string{"result"})
	pr.tocsWritten = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tocs_written_total",
		Help:      "Table of contents files written by format",
	}, []string{"format"})
	pr.warnings = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "warnings_total",
		Help:      "Recoverable problems reported during a run by category",
	}, []string{"category"})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Runs by final status",
	}, []string{"outcome"})
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.fileResults, pr.tocsWritten, pr.warnings, pr.runOutcome)
	return pr
}

// Registry returns the registry the collectors were registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFileResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.fileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncTOCWritten(format string) {
	if p == nil {
		return
	}
	p.tocsWritten.WithLabelValues(format).Inc()
}

func (p *PrometheusRecorder) IncWarning(category string) {
	if p == nil {
		return
	}
	p.warnings.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every gathered family to path in the text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
