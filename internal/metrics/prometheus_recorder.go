package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration *prom.HistogramVec
	pageResults    *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"mode"}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "page_results_total",
			Help:      "Page results by outcome",
		}, []string{"mode", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.renderDuration, pr.pageResults, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(mode string, result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(mode, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}
