// Package metrics records build observability data.
//
// Components receive a Recorder. NoopRecorder is the default so callers never
// check for nil; PrometheusRecorder exports the same hooks on a registry which
// the preview server exposes on /metrics.
package metrics
