package mdrender

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder defines observability hooks for render metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must tolerate
// concurrent calls; renders invoke them from the orchestrating goroutine
// and from hydration goroutines.
type Recorder interface {
	ObserveStageDuration(stage Stage, d time.Duration)
	IncCacheHit()
	IncCacheMiss()
	IncTaskDispatched(t TaskType)
	IncTaskCompleted(t TaskType)
	IncTaskTimeout(t TaskType)
	IncSectionHydrated()
	IncHydrationError()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(Stage, time.Duration) {}
func (NoopRecorder) IncCacheHit()                              {}
func (NoopRecorder) IncCacheMiss()                             {}
func (NoopRecorder) IncTaskDispatched(TaskType)                {}
func (NoopRecorder) IncTaskCompleted(TaskType)                 {}
func (NoopRecorder) IncTaskTimeout(TaskType)                   {}
func (NoopRecorder) IncSectionHydrated()                       {}
func (NoopRecorder) IncHydrationError()                        {}

// metricsNamespace prefixes every exported metric name.
const metricsNamespace = "mdrender"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	cacheResults   *prom.CounterVec
	tasks          *prom.CounterVec
	sectionResults *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent). A nil registry gets a private one, useful in tests.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual render stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.cacheResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_results_total",
			Help:      "Cache lookups by result",
		}, []string{"result"})
		pr.tasks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_total",
			Help:      "Dispatched tasks by type and outcome",
		}, []string{"type", "outcome"})
		pr.sectionResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sections_total",
			Help:      "Section hydrations by result",
		}, []string{"result"})
		reg.MustRegister(pr.stageDuration, pr.cacheResults, pr.tasks, pr.sectionResults)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage Stage, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheHit() {
	if p == nil || p.cacheResults == nil {
		return
	}
	p.cacheResults.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncCacheMiss() {
	if p == nil || p.cacheResults == nil {
		return
	}
	p.cacheResults.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncTaskDispatched(t TaskType) {
	if p == nil || p.tasks == nil {
		return
	}
	p.tasks.WithLabelValues(t.String(), "dispatched").Inc()
}

func (p *PrometheusRecorder) IncTaskCompleted(t TaskType) {
	if p == nil || p.tasks == nil {
		return
	}
	p.tasks.WithLabelValues(t.String(), "completed").Inc()
}

func (p *PrometheusRecorder) IncTaskTimeout(t TaskType) {
	if p == nil || p.tasks == nil {
		return
	}
	p.tasks.WithLabelValues(t.String(), "timeout").Inc()
}

func (p *PrometheusRecorder) IncSectionHydrated() {
	if p == nil || p.sectionResults == nil {
		return
	}
	p.sectionResults.WithLabelValues("hydrated").Inc()
}

func (p *PrometheusRecorder) IncHydrationError() {
	if p == nil || p.sectionResults == nil {
		return
	}
	p.sectionResults.WithLabelValues("error").Inc()
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
