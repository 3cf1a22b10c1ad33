package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

// DefaultNamespace prefixes every exported metric.
const DefaultNamespace = "playoffcache"

// Default histogram buckets for producer duration (in milliseconds)
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Prometheus owns a registry with the Go and process collectors, the
// producer and backend event series, and the cache snapshot collector.
type Prometheus struct {
	registry  *prometheus.Registry
	namespace string

	computeTotal       *prometheus.CounterVec
	computeDuration    *prometheus.HistogramVec
	backendTransitions *prometheus.CounterVec
}

// New builds the registry. Empty namespace and nil buckets take defaults.
func New(namespace string, buckets []float64) *Prometheus {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	p := &Prometheus{
		registry:  registry,
		namespace: namespace,

		computeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "computes_total",
				Help:      "Producer runs triggered by cache misses",
			},
			[]string{"cache_namespace", "result"},
		),

		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "compute_duration_milliseconds",
				Help:      "Duration of producer runs in milliseconds",
				Buckets:   buckets,
			},
			[]string{"cache_namespace"},
		),

		backendTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "state_transitions_total",
				Help:      "Backend connectivity state changes by target state",
			},
			[]string{"to_state"},
		),
	}

	registry.MustRegister(p.computeTotal, p.computeDuration, p.backendTransitions)
	return p
}

// ObserveCompute records one producer run. It matches cache.ComputeObserver.
func (p *Prometheus) ObserveCompute(namespace string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.computeTotal.WithLabelValues(namespace, result).Inc()
	p.computeDuration.WithLabelValues(namespace).Observe(float64(took) / float64(time.Millisecond))
}

// ObserveBackendTransition records a selector state change.
func (p *Prometheus) ObserveBackendTransition(from, to backend.State) {
	p.backendTransitions.WithLabelValues(to.String()).Inc()
}

// RegisterCache exports c's counters and backend status on every scrape.
func (p *Prometheus) RegisterCache(c *cache.Cache) error {
	return p.registry.Register(NewCacheCollector(p.namespace, c))
}

// Handler returns an HTTP handler for Prometheus scraping.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
