package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marksite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   *prom.HistogramVec
	buildOutcome    *prom.CounterVec
	documents       prom.Counter
	rebuildRequests *prom.CounterVec
	inProgress      prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration by build kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by kind and final status",
		}, []string{"kind", "outcome"}),
		documents: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Documents rendered across all builds",
		}),
		rebuildRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_requests_total",
			Help:      "Classified file change notifications by rebuild kind",
		}, []string{"kind"}),
		inProgress: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "build_in_progress",
			Help:      "1 while a build is running",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.documents, pr.rebuildRequests, pr.inProgress)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(kind string, d time.Duration) {
	p.buildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(kind, outcome string) {
	p.buildOutcome.WithLabelValues(kind, outcome).Inc()
}

func (p *PrometheusRecorder) AddDocumentsRendered(n int) {
	p.documents.Add(float64(n))
}

func (p *PrometheusRecorder) IncRebuildRequest(kind string) {
	p.rebuildRequests.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) SetBuildInProgress(running bool) {
	if running {
		p.inProgress.Set(1)
		return
	}
	p.inProgress.Set(0)
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
