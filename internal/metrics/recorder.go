// Package metrics abstracts metric collection for pipeline runs. Jobs record
// coarse counters through the MetricRecorder interface; the default recorder
// does nothing, and a Prometheus-backed recorder can be selected when a run
// should expose its counters.
package metrics

import (
	"context"
	"time"
)

// MetricRecorder is an abstract interface for recording metrics related to a
// pipeline run. It keeps the jobs decoupled from the metrics backend.
type MetricRecorder interface {
	// RecordJobDuration records the wall-clock duration and outcome of a job.
	RecordJobDuration(ctx context.Context, jobName, status string, duration time.Duration)

	// RecordRowsRead records rows read from a source by a job.
	RecordRowsRead(ctx context.Context, jobName, source string, count int)

	// RecordRowsWritten records rows written to an output by a job.
	RecordRowsWritten(ctx context.Context, jobName, output string, count int)

	// RecordMatch records the outcome of a nearest-observation lookup.
	// side is "dep" or "arr"; matched is whether a candidate fell within
	// the tolerance window.
	RecordMatch(ctx context.Context, side string, matched bool)
}

// NoOpMetricRecorder is an implementation of MetricRecorder that does
// nothing. It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordJobDuration does nothing.
func (r *NoOpMetricRecorder) RecordJobDuration(ctx context.Context, jobName, status string, duration time.Duration) {
}

// RecordRowsRead does nothing.
func (r *NoOpMetricRecorder) RecordRowsRead(ctx context.Context, jobName, source string, count int) {
}

// RecordRowsWritten does nothing.
func (r *NoOpMetricRecorder) RecordRowsWritten(ctx context.Context, jobName, output string, count int) {
}

// RecordMatch does nothing.
func (r *NoOpMetricRecorder) RecordMatch(ctx context.Context, side string, matched bool) {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)
