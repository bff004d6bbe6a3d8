// Package job holds the pipeline's batch jobs. Each job is a run-to-completion
// unit selected by name from the command line; the Runner stamps every run
// with an ID, times it, and records the outcome through the metric recorder.
package job

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/metrics"
)

// Job is one runnable pipeline stage.
type Job interface {
	// Name is the CLI-facing job name.
	Name() string
	// Run executes the job to completion. args carry job-specific
	// positional parameters from the command line.
	Run(ctx context.Context, args []string) error
}

// Runner dispatches jobs by name.
type Runner struct {
	jobs     map[string]Job
	recorder metrics.MetricRecorder
}

// NewRunner indexes the registered jobs.
func NewRunner(jobs []Job, recorder metrics.MetricRecorder) *Runner {
	m := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		m[j.Name()] = j
	}
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Runner{jobs: m, recorder: recorder}
}

// JobNames returns the registered job names, sorted.
func (r *Runner) JobNames() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job and records its duration and outcome.
func (r *Runner) Run(ctx context.Context, name string, args []string) error {
	j, ok := r.jobs[name]
	if !ok {
		return exception.NewPipelineError("runner",
			fmt.Sprintf("unknown job %q (available: %s)", name, strings.Join(r.JobNames(), ", ")), nil, false)
	}

	runID := uuid.NewString()
	logger.Infof("Starting job '%s' (run ID: %s).", name, runID)
	start := time.Now()

	err := j.Run(ctx, args)
	elapsed := time.Since(start)

	status := "COMPLETED"
	if err != nil {
		status = "FAILED"
	}
	r.recorder.RecordJobDuration(ctx, name, status, elapsed)

	if err != nil {
		logger.Errorf("Job '%s' (run ID: %s) failed after %s: %v", name, runID, elapsed, err)
		return err
	}
	logger.Infof("Job '%s' (run ID: %s) completed in %s.", name, runID, elapsed)
	return nil
}
