package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	stageResults     *prom.CounterVec
	buildOutcome     *prom.CounterVec
	pagesRendered    prom.Gauge
	passthroughFiles prom.Counter
	brokenLinks      prom.Counter
	rebuilds         *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesRendered = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pages_rendered",
			Help:      "Pages written by the last build",
		})
		pr.passthroughFiles = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passthrough_files_total",
			Help:      "Files copied verbatim into the output",
		})
		pr.brokenLinks = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "broken_links_total",
			Help:      "Broken internal links found by link verification",
		})
		pr.rebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Builds started by the preview server, by trigger",
		}, []string{"trigger"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.pagesRendered, pr.passthroughFiles, pr.brokenLinks, pr.rebuilds)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Set(float64(n))
}

func (p *PrometheusRecorder) AddPassthroughFiles(n int) {
	if p == nil || p.passthroughFiles == nil || n <= 0 {
		return
	}
	p.passthroughFiles.Add(float64(n))
}

func (p *PrometheusRecorder) AddBrokenLinks(n int) {
	if p == nil || p.brokenLinks == nil || n <= 0 {
		return
	}
	p.brokenLinks.Add(float64(n))
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}
