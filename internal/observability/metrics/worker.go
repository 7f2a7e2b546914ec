package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobTotal          *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	jobInFlight       prometheus.Gauge
	sectionsGenerated *prometheus.CounterVec
	queueLag          *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "worker",
			Name:      "job_total",
			Help:      "Total executed generation jobs by outcome.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memogen",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Generation job duration in seconds by outcome.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "memogen",
			Subsystem: "worker",
			Name:      "job_in_flight",
			Help:      "Number of generation jobs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sectionsGenerated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memogen",
			Subsystem: "worker",
			Name:      "sections_generated_total",
			Help:      "Total memorandum sections generated.",
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memogen",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job creation and execution start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, sectionsGenerated, queueLag)

	return &WorkerMetrics{
		registry:          registry,
		jobTotal:          jobTotal,
		jobDuration:       jobDuration,
		jobInFlight:       jobInFlight,
		sectionsGenerated: sectionsGenerated,
		queueLag:          queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) AddSections(service string, count int) {
	m.sectionsGenerated.WithLabelValues(service).Add(float64(count))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
