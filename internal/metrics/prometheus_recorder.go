package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tigerroll/flightprep/internal/logger"
)

// PrometheusRecorder is a Prometheus implementation of the MetricRecorder
// interface. Counters survive for the lifetime of the run and can be gathered
// from the registry (e.g. dumped at job end or scraped from a debug listener).
type PrometheusRecorder struct {
	registry *prometheus.Registry

	jobDurationSeconds *prometheus.HistogramVec
	rowsReadTotal      *prometheus.CounterVec
	rowsWrittenTotal   *prometheus.CounterVec
	matchTotal         *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flightprep_job_duration_seconds",
			Help:    "Duration of pipeline job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		rowsReadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flightprep_rows_read_total",
			Help: "Total rows read per job and source.",
		}, []string{"job_name", "source"}),
		rowsWrittenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flightprep_rows_written_total",
			Help: "Total rows written per job and output.",
		}, []string{"job_name", "output"}),
		matchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flightprep_weather_match_total",
			Help: "Nearest-observation lookups by side and outcome.",
		}, []string{"side", "outcome"}),
	}

	registry.MustRegister(
		r.jobDurationSeconds,
		r.rowsReadTotal,
		r.rowsWrittenTotal,
		r.matchTotal,
	)

	return r
}

// Registry exposes the underlying registry for gathering.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordJobDuration records the wall-clock duration and outcome of a job.
func (r *PrometheusRecorder) RecordJobDuration(ctx context.Context, jobName, status string, duration time.Duration) {
	r.jobDurationSeconds.WithLabelValues(jobName, status).Observe(duration.Seconds())
	logger.Debugf("Recorded duration %.3fs for job '%s' (%s).", duration.Seconds(), jobName, status)
}

// RecordRowsRead records rows read from a source by a job.
func (r *PrometheusRecorder) RecordRowsRead(ctx context.Context, jobName, source string, count int) {
	r.rowsReadTotal.WithLabelValues(jobName, source).Add(float64(count))
}

// RecordRowsWritten records rows written to an output by a job.
func (r *PrometheusRecorder) RecordRowsWritten(ctx context.Context, jobName, output string, count int) {
	r.rowsWrittenTotal.WithLabelValues(jobName, output).Add(float64(count))
}

// RecordMatch records the outcome of a nearest-observation lookup.
func (r *PrometheusRecorder) RecordMatch(ctx context.Context, side string, matched bool) {
	outcome := "matched"
	if !matched {
		outcome = "unmatched"
	}
	r.matchTotal.WithLabelValues(side, outcome).Inc()
}

var _ MetricRecorder = (*PrometheusRecorder)(nil)
