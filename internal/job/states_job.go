package job

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tigerroll/flightprep/internal/archive"
	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/export"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/states"
	"github.com/tigerroll/flightprep/internal/table"
)

// StatesJob extracts the OpenSky history tarballs, concatenates the CSV
// segments, filters to the terminal-area bounding box and writes the raw
// state-vector dataset.
type StatesJob struct {
	cfg      *config.Config
	recorder metrics.MetricRecorder
}

// NewStatesJob wires the extraction job.
func NewStatesJob(cfg *config.Config, recorder metrics.MetricRecorder) *StatesJob {
	return &StatesJob{cfg: cfg, recorder: recorder}
}

func (j *StatesJob) Name() string { return "states" }

func (j *StatesJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep
	statesDir := filepath.Join(fp.Paths.DataDir, "states")

	tarballs, err := archive.FindByExtension(statesDir, ".tar")
	if err != nil {
		return err
	}
	if len(tarballs) == 0 {
		return exception.NewPipelineError(j.Name(),
			fmt.Sprintf("no .tar archives found under %s", statesDir), nil, false)
	}

	extractDir := filepath.Join(statesDir, "extracted")
	for _, t := range tarballs {
		if _, err := archive.ExtractTar(t, extractDir); err != nil {
			return err
		}
	}
	segments, err := archive.FindByExtension(extractDir, ".csv")
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return exception.NewPipelineError(j.Name(),
			fmt.Sprintf("extracted archives contained no CSV segments under %s", extractDir), nil, false)
	}

	points, err := states.Load(segments)
	if err != nil {
		return err
	}
	j.recorder.RecordRowsRead(ctx, j.Name(), "opensky_segments", len(points))

	points = states.FilterBBox(points, fp.Airport)

	sink, err := export.NewSink(ctx, fp.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()

	t := stateVectorTable(points)
	if err := export.WriteTableCSV(ctx, sink, rawStatesName(), t); err != nil {
		return err
	}
	j.recorder.RecordRowsWritten(ctx, j.Name(), rawStatesName(), t.NumRows())
	return nil
}

// stateVectorTable materializes state vectors with epoch-second timestamps so
// downstream loads re-infer the unit from the data.
func stateVectorTable(points []entity.StateVector) *table.Table {
	t := table.New(
		table.Column{Name: "time", Kind: table.KindInt},
		table.Column{Name: "icao24", Kind: table.KindString},
		table.Column{Name: "lat", Kind: table.KindFloat},
		table.Column{Name: "lon", Kind: table.KindFloat},
		table.Column{Name: "velocity", Kind: table.KindFloat},
		table.Column{Name: "heading", Kind: table.KindFloat},
		table.Column{Name: "vertrate", Kind: table.KindFloat},
		table.Column{Name: "geoaltitude", Kind: table.KindFloat},
	)
	for i := range points {
		p := &points[i]
		row := []*string{
			table.Int(p.Time.Unix()),
			table.String(p.ICAO24),
			table.FloatPtr(p.Lat),
			table.FloatPtr(p.Lon),
			table.FloatPtr(p.Velocity),
			table.FloatPtr(p.Heading),
			table.FloatPtr(p.VertRate),
			table.FloatPtr(p.GeoAltitude),
		}
		_ = t.Append(row)
	}
	return t
}
