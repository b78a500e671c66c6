package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "symdoc"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration      *prom.HistogramVec
	buildDuration      prom.Histogram
	buildOutcome       *prom.CounterVec
	pageResults        *prom.CounterVec
	extractionDuration prom.Histogram
	extractions        *prom.CounterVec
	cacheHits          prom.Counter
	stalePages         prom.Counter
	unresolvedRefs     prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh private registry.
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
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_results_total",
			Help:      "Processed pages by result",
		}, []string{"result"}),
		extractionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of external extractor invocations",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		extractions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "External extractor invocations by result",
		}, []string{"result"}),
		cacheHits: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "symbol_cache_hits_total",
			Help:      "Symbol lookups served from the cache without invoking the extractor",
		}),
		stalePages: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stale_pages_total",
			Help:      "Pages scheduled because a documented source changed",
		}),
		unresolvedRefs: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_references_total",
			Help:      "Cross references rendered as unresolved placeholders",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.pageResults,
		pr.extractionDuration, pr.extractions, pr.cacheHits, pr.stalePages, pr.unresolvedRefs,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
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

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveExtractionDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.extractionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExtraction(result ExtractionLabel) {
	if p == nil {
		return
	}
	p.extractions.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheHit() {
	if p == nil {
		return
	}
	p.cacheHits.Inc()
}

func (p *PrometheusRecorder) AddStalePages(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.stalePages.Add(float64(n))
}

func (p *PrometheusRecorder) IncUnresolvedReference() {
	if p == nil {
		return
	}
	p.unresolvedRefs.Inc()
}
