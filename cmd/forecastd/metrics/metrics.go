// Package metrics provides Prometheus instrumentation for forecastd.
//
// All metrics are exposed via the /metrics HTTP endpoint for Prometheus
// scraping.
//
// Metrics exposed:
//   - tidecast_jobs_total: Counter of jobs by kind and status
//   - tidecast_job_duration_seconds: Histogram of job durations by kind
//   - tidecast_job_series: Histogram of series counts per job
//   - tidecast_jobs_active: Gauge of jobs currently executing
//   - tidecast_store_errors_total: Counter of result-store failures
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	JobSeries   prometheus.Histogram
	JobsActive  prometheus.Gauge
	StoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		JobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tidecast_jobs_total",
			Help: "Total number of jobs by kind and status",
		}, []string{"kind", "status"}),

		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tidecast_job_duration_seconds",
			Help:    "Duration of jobs by kind",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		JobSeries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tidecast_job_series",
			Help:    "Number of series per job",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		JobsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tidecast_jobs_active",
			Help: "Jobs currently executing",
		}),

		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tidecast_store_errors_total",
			Help: "Total number of result-store failures",
		}),
	}
}

func (m *Metrics) RecordJob(kind, status string) {
	m.JobsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveJobDuration(kind string, seconds float64) {
	m.JobDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) ObserveJobSeries(n int) {
	m.JobSeries.Observe(float64(n))
}

func (m *Metrics) JobStarted() {
	m.JobsActive.Inc()
}

func (m *Metrics) JobFinished() {
	m.JobsActive.Dec()
}

func (m *Metrics) RecordStoreError() {
	m.StoreErrors.Inc()
}
