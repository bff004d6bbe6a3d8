package job

import (
	"context"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/export"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/states"
	"github.com/tigerroll/flightprep/internal/table"
	"github.com/tigerroll/flightprep/internal/window"
)

// FeaturesJob turns the raw state-vector dataset into the feature table:
// cleaning, per-aircraft trailing-window statistics, and calendar columns.
type FeaturesJob struct {
	cfg      *config.Config
	recorder metrics.MetricRecorder
}

// NewFeaturesJob wires the feature generation job.
func NewFeaturesJob(cfg *config.Config, recorder metrics.MetricRecorder) *FeaturesJob {
	return &FeaturesJob{cfg: cfg, recorder: recorder}
}

func (j *FeaturesJob) Name() string { return "features" }

func (j *FeaturesJob) Run(ctx context.Context, args []string) error {
	fp := j.cfg.Flightprep

	input := outPath(fp, rawStatesName())
	if len(args) > 0 {
		input = args[0]
	}
	points, err := states.Load([]string{input})
	if err != nil {
		return err
	}
	j.recorder.RecordRowsRead(ctx, j.Name(), input, len(points))

	points = states.Clean(points)
	groups := states.GroupByAircraft(points)
	specs := window.SpecsFromConfig(fp.Features)
	windowCols := window.Columns(specs)

	cols := []table.Column{
		{Name: "icao24", Kind: table.KindString},
		{Name: "time", Kind: table.KindInt},
		{Name: "lat", Kind: table.KindFloat},
		{Name: "lon", Kind: table.KindFloat},
		{Name: "velocity", Kind: table.KindFloat},
		{Name: "heading", Kind: table.KindFloat},
		{Name: "vertrate", Kind: table.KindFloat},
		{Name: "geoaltitude", Kind: table.KindFloat},
	}
	for _, name := range windowCols {
		cols = append(cols, table.Column{Name: name, Kind: table.KindFloat})
	}
	cols = append(cols,
		table.Column{Name: "year", Kind: table.KindInt},
		table.Column{Name: "month", Kind: table.KindInt},
		table.Column{Name: "day", Kind: table.KindInt},
		table.Column{Name: "hour", Kind: table.KindInt},
		table.Column{Name: "date", Kind: table.KindString},
	)
	t := table.New(cols...)

	// Map iteration order does not matter for correctness, but walking the
	// cleaned slice keeps the output deterministic.
	seen := make(map[string]bool, len(groups))
	for i := range points {
		icao := points[i].ICAO24
		if seen[icao] {
			continue
		}
		seen[icao] = true

		series := groups[icao]
		stats := window.Aggregate(series, specs)
		for k := range series {
			p := &series[k]
			row := make([]*string, 0, len(cols))
			row = append(row,
				table.String(p.ICAO24),
				table.Int(p.Time.Unix()),
				table.FloatPtr(p.Lat),
				table.FloatPtr(p.Lon),
				table.FloatPtr(p.Velocity),
				table.FloatPtr(p.Heading),
				table.FloatPtr(p.VertRate),
				table.FloatPtr(p.GeoAltitude),
			)
			for _, name := range windowCols {
				row = append(row, table.FloatPtr(stats[k][name]))
			}
			row = append(row,
				table.Int(int64(p.Time.Year())),
				table.Int(int64(p.Time.Month())),
				table.Int(int64(p.Time.Day())),
				table.Int(int64(p.Time.Hour())),
				table.String(p.Time.Format("2006-01-02")),
			)
			if err := t.Append(row); err != nil {
				return err
			}
		}
	}

	sink, err := export.NewSink(ctx, fp.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := export.WriteTableCSV(ctx, sink, featuresBaseName()+".csv", t); err != nil {
		return err
	}
	if err := export.WriteTableParquet(ctx, sink, featuresBaseName()+".parquet", t); err != nil {
		return err
	}
	j.recorder.RecordRowsWritten(ctx, j.Name(), featuresBaseName(), t.NumRows())
	return nil
}
