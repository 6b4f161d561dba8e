// Package metrics records run metrics for docpress.
//
// Components receive a Recorder through their options and default to
// NoopRecorder. The CLI swaps in a PrometheusRecorder when a textfile path is
// configured and writes the gathered families with WriteTextfile after the run,
// which suits node_exporter's textfile collector for batch jobs.
package metrics
