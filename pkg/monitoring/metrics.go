package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"go-clinic-management/pkg/apperror"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection. A nil collector
// is valid and records nothing.
type MetricsCollector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	workflowTotal       *prometheus.CounterVec
	workflowDuration    *prometheus.HistogramVec
	repairedRowsTotal   *prometheus.CounterVec
	gatherer            prometheus.Gatherer
}

// NewMetricsCollector creates the collectors and registers them on reg.
func NewMetricsCollector(reg *prometheus.Registry) *MetricsCollector {
	m := &MetricsCollector{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		workflowTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_workflow_operations_total",
				Help: "Workflow operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		workflowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clinic_workflow_duration_seconds",
				Help:    "Duration of workflow operations in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"operation"},
		),
		repairedRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_integrity_repaired_rows_total",
				Help: "Rows fixed by the integrity repair job",
			},
			[]string{"step"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.workflowTotal,
		m.workflowDuration,
		m.repairedRowsTotal,
	)
	return m
}

// Outcome labels a workflow result: "ok", the domain error kind, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := apperror.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// RecordWorkflow records one workflow call that started at start.
func (m *MetricsCollector) RecordWorkflow(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.workflowTotal.WithLabelValues(operation, Outcome(err)).Inc()
	m.workflowDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordRepair records how many rows a repair step fixed
func (m *MetricsCollector) RecordRepair(step string, repaired int) {
	if m == nil || repaired <= 0 {
		return
	}
	m.repairedRowsTotal.WithLabelValues(step).Add(float64(repaired))
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HTTPMiddleware creates middleware for HTTP request metrics. The endpoint
// label is the matched route template so ids do not explode cardinality.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		m.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
