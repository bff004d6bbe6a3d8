package job

import (
	"context"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/profile"
	"github.com/tigerroll/flightprep/internal/schema"
	"github.com/tigerroll/flightprep/internal/table"
)

// ProfileJob summarizes an enriched dataset: row count, null percentages,
// numeric descriptions, categorical top counts.
type ProfileJob struct {
	cfg      *config.Config
	recorder metrics.MetricRecorder
}

// NewProfileJob wires the profiling job.
func NewProfileJob(cfg *config.Config, recorder metrics.MetricRecorder) *ProfileJob {
	return &ProfileJob{cfg: cfg, recorder: recorder}
}

func (j *ProfileJob) Name() string { return "profile" }

func (j *ProfileJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep

	opts := profile.DefaultOptions()
	props, rest := splitProps(args)
	if len(props) > 0 {
		// e.g. "profile top_k=5 top_null_columns=25".
		if err := config.BindProperties(props, &opts); err != nil {
			return err
		}
	}

	path := outPath(fp, enrichedBaseName(fp)+".csv")
	if len(rest) > 0 {
		path = rest[0]
	}

	f, err := schema.ReadCSV(path)
	if err != nil {
		return err
	}
	j.recorder.RecordRowsRead(ctx, j.Name(), path, len(f.Rows))

	cols := make([]table.Column, len(f.Header))
	for i, name := range f.Header {
		cols[i] = table.Column{Name: name, Kind: table.KindString}
	}
	t := table.New(cols...)
	for _, row := range f.Rows {
		cells := make([]*string, len(cols))
		for i := range cols {
			v := f.Cell(row, i)
			if v != "" {
				cells[i] = table.String(v)
			}
		}
		if err := t.Append(cells); err != nil {
			return err
		}
	}

	profile.Summarize(t, opts).Log()
	return nil
}
