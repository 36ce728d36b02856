// Package metrics holds the Prometheus collectors for terrain-service,
// grounded on the teacher's internal/metrics package (a single Metrics
// struct of collectors plus a Register method).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the demo service.
type Metrics struct {
	StageDuration      *prometheus.HistogramVec
	StageReused        *prometheus.CounterVec
	PathQueryLatency   prometheus.Histogram
	PathQueryNotFound  prometheus.Counter
	PickQueryLatency   prometheus.Histogram
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New initializes the collectors.
func New() *Metrics {
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrain_stage_duration_seconds",
			Help:    "Pipeline stage build duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		StageReused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_stage_reused_total",
			Help: "Count of stage runs that reused a prior cache by move",
		}, []string{"stage", "reused"}),
		PathQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_astar_query_duration_seconds",
			Help:    "A* path query latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PathQueryNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_astar_unreachable_total",
			Help: "Count of A* queries that returned an unreachable path",
		}),
		PickQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_pick_query_duration_seconds",
			Help:    "Pick index lookup latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_query_cache_hits_total",
			Help: "Redis-backed query cache hits",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrain_query_cache_misses_total",
			Help: "Redis-backed query cache misses",
		}, []string{"kind"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrain_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.StageDuration,
		m.StageReused,
		m.PathQueryLatency,
		m.PathQueryNotFound,
		m.PickQueryLatency,
		m.CacheHits,
		m.CacheMisses,
		m.HTTPRequestLatency,
	)
}

// Middleware records HTTP request latency by method/path/status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		m.HTTPRequestLatency.WithLabelValues(r.Method, r.URL.Path, http.StatusText(ww.status)).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
