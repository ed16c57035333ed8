// Package metrics provides Prometheus metrics for the QuantumStore server
// and the category explorer engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumstore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantumstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Explorer engine metrics
	treeLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumstore_explorer_tree_loads_total",
			Help: "Total canonical tree loads by source",
		},
		[]string{"source"}, // "groups", "fallback", "error"
	)

	treeGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantumstore_explorer_tree_groups",
			Help: "Number of groups in the current canonical tree",
		},
	)

	lazyLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumstore_explorer_lazy_loads_total",
			Help: "Total per-subgroup item loads",
		},
		[]string{"result"}, // "success", "error", "skipped", "stale"
	)

	searchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quantumstore_explorer_searches_total",
			Help: "Total non-empty searches run against the canonical tree",
		},
	)

	rebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumstore_explorer_rebuilds_total",
			Help: "Total rebuild triggers",
		},
		[]string{"result"},
	)

	// Store metrics
	storeFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantumstore_store_files",
			Help: "Number of file records in the metadata store",
		},
	)

	groupingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantumstore_grouping_duration_seconds",
			Help:    "Time to recompute the category grouping",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTreeLoad records a canonical tree load and its source.
func RecordTreeLoad(source string, groups int) {
	treeLoadsTotal.WithLabelValues(source).Inc()
	treeGroups.Set(float64(groups))
}

// RecordLazyLoad records a per-subgroup item load outcome.
func RecordLazyLoad(result string) {
	lazyLoadsTotal.WithLabelValues(result).Inc()
}

// RecordSearch records a non-empty search.
func RecordSearch() {
	searchesTotal.Inc()
}

// RecordRebuild records a rebuild trigger outcome.
func RecordRebuild(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	rebuildsTotal.WithLabelValues(result).Inc()
}

// SetStoreFiles sets the current metadata store size.
func SetStoreFiles(count int) {
	storeFiles.Set(float64(count))
}

// RecordGrouping records a grouping recomputation duration.
func RecordGrouping(duration time.Duration) {
	groupingDuration.Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
