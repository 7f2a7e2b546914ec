package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	jobsCreatedTotal    *prometheus.CounterVec
	jobEventsSentTotal  *prometheus.CounterVec
	exportRequestsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memogen",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "memogen",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	jobsCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "jobs",
			Name:      "created_total",
			Help:      "Total generation jobs accepted via the API.",
		},
		[]string{"service"},
	)
	jobEventsSentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "jobs",
			Name:      "events_sent_total",
			Help:      "Total job progress events delivered to SSE subscribers.",
		},
		[]string{"service"},
	)
	exportRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Total memorandum export downloads.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight,
		jobsCreatedTotal, jobEventsSentTotal, exportRequestsTotal)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		jobsCreatedTotal:    jobsCreatedTotal,
		jobEventsSentTotal:  jobEventsSentTotal,
		exportRequestsTotal: exportRequestsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &metricsRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/jobs/"):
		return "/v1/jobs/{job_id}"
	case strings.HasPrefix(path, "/v1/contents/"):
		return "/v1/contents/{content_id}"
	case strings.HasPrefix(path, "/v1/templates/"):
		return "/v1/templates/{template_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordJobCreated(service string) {
	m.jobsCreatedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordJobEventSent(service string) {
	m.jobEventsSentTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordExport(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.exportRequestsTotal.WithLabelValues(service, status).Inc()
}

type metricsRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *metricsRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *metricsRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("response writer does not support hijacking")
}
