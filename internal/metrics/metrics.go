// Package metrics provides Prometheus metrics for the engine and the backend API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultBusy    = "busy"
	ResultInvalid = "invalid"
)

var (
	// Engine metrics
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_operations_total",
			Help: "Total engine operations by result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modbridge_operation_duration_seconds",
			Help:    "Engine operation duration including the follow-up refresh",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	busyRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_busy_rejections_total",
			Help: "Requests rejected because their operation class was busy",
		},
		[]string{"class"},
	)

	rollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modbridge_optimistic_rollbacks_total",
			Help: "Optimistic toggles reverted after a gateway failure",
		},
	)

	refreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modbridge_refresh_duration_seconds",
			Help:    "Authoritative refresh duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Backend HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modbridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modbridge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordOperation records the outcome of an engine operation.
func RecordOperation(operation, result string, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, result).Inc()
	if result == ResultSuccess || result == ResultError {
		operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordBusyRejection records a request refused by a held slot.
func RecordBusyRejection(class string) {
	busyRejectionsTotal.WithLabelValues(class).Inc()
}

// RecordRollback records a reverted optimistic update.
func RecordRollback() {
	rollbacksTotal.Inc()
}

// RecordRefresh records an authoritative refresh.
func RecordRefresh(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	refreshDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
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

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
// Paths are labelled by the matched route pattern to keep ids out of the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
	})
}
