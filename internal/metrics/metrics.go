package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed by the service.
type Metrics struct {
	registry *prometheus.Registry

	Detections        *prometheus.CounterVec
	DetectionDuration prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	CacheEvictions    prometheus.Counter
	ClassifierTimeout prometheus.Counter
	RateLimited       prometheus.Counter
}

// New creates and registers the service metrics. If registry is nil a fresh
// one is used, which keeps tests isolated from each other.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langsentinel_detections_total",
			Help: "Completed detections by method",
		}, []string{"method"}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "langsentinel_detection_seconds",
			Help: "End-to-end detection latency",
			// The engine targets single-digit milliseconds.
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsentinel_cache_hits_total",
			Help: "Detection cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsentinel_cache_misses_total",
			Help: "Detection cache misses",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsentinel_cache_evictions_total",
			Help: "Detection cache evictions",
		}),
		ClassifierTimeout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsentinel_classifier_timeouts_total",
			Help: "Statistical stage timeouts",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langsentinel_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	registry.MustRegister(
		m.Detections,
		m.DetectionDuration,
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.ClassifierTimeout,
		m.RateLimited,
	)

	return m
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
