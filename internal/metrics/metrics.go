// Package metrics exposes Prometheus instrumentation for the job pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline instruments. All counters follow Prometheus
// naming conventions with the service name as prefix.
type Metrics struct {
	jobsCreated   prometheus.Counter
	jobsFinished  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	jobsActive    prometheus.Gauge
}

// New registers the pipeline metrics with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mediapress_jobs_created_total",
			Help: "Total jobs accepted for processing",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediapress_jobs_finished_total",
			Help: "Total jobs reaching a terminal state, by final status",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediapress_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediapress_jobs_active",
			Help: "Jobs currently executing a pipeline stage",
		}),
	}

	reg.MustRegister(m.jobsCreated, m.jobsFinished, m.stageDuration, m.jobsActive)
	return m
}

// JobCreated counts one accepted job.
func (m *Metrics) JobCreated() {
	m.jobsCreated.Inc()
}

// JobStarted marks a job entering execution.
func (m *Metrics) JobStarted() {
	m.jobsActive.Inc()
}

// JobFinished marks a job reaching a terminal status.
func (m *Metrics) JobFinished(status string) {
	m.jobsActive.Dec()
	m.jobsFinished.WithLabelValues(status).Inc()
}

// StageDuration records the wall time of one completed stage.
func (m *Metrics) StageDuration(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// Handler serves the default registry scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
