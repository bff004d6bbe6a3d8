// Package enrich assembles the final dataset: flight records widened with the
// departure- and arrival-side nearest weather observations, the hourly
// regional weather index, and the aircraft registry dimension. The merge is a
// pure widening; the flight row cardinality never changes.
package enrich

import (
	"context"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/flights"
	"github.com/tigerroll/flightprep/internal/join"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/metrics"
	"github.com/tigerroll/flightprep/internal/registry"
	"github.com/tigerroll/flightprep/internal/table"
	"github.com/tigerroll/flightprep/internal/weather"
)

// RegistryNotFound is the sentinel written into every registry-sourced column
// of a flight whose tail number has no registry record, when forced-string
// mode is on. Downstream consumers filter on the literal, so it must never
// degrade to an empty string or null.
const RegistryNotFound = "Registry Not Found"

// weatherFields lists the observation fields copied into the output, in
// column order. Severity is derived and appended after them.
var weatherFields = []string{"sknt", "vsby", "p01i", "skyl1", "tmpf"}

// Merger builds the enriched flight table.
type Merger struct {
	matcher  *join.Matcher
	regional *weather.RegionalIndex
	registry *registry.Index
	cfg      config.RegistryConfig
	recorder metrics.MetricRecorder
}

// NewMerger wires the merge inputs. The matcher holds the per-station
// observation series, the regional index the hourly aggregates, and the
// registry index the deduplicated aircraft dimension.
func NewMerger(matcher *join.Matcher, regional *weather.RegionalIndex, idx *registry.Index, cfg config.RegistryConfig, recorder metrics.MetricRecorder) *Merger {
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	return &Merger{
		matcher:  matcher,
		regional: regional,
		registry: idx,
		cfg:      cfg,
		recorder: recorder,
	}
}

// Build produces the enriched table: one output row per input flight, columns
// in the order source passthrough, dep_ weather set, arr_ weather set,
// regional hour fields, registry payload.
func (m *Merger) Build(ctx context.Context, fl *flights.Result) (*table.Table, error) {
	cols := make([]table.Column, 0, len(fl.SourceCols)+2*(len(weatherFields)+1)+3+len(entity.RegistryColumns))
	for _, name := range fl.SourceCols {
		cols = append(cols, table.Column{Name: name, Kind: table.KindString})
	}
	for _, prefix := range []string{"dep_", "arr_"} {
		for _, f := range weatherFields {
			cols = append(cols, table.Column{Name: prefix + f, Kind: table.KindFloat})
		}
		cols = append(cols, table.Column{Name: prefix + "weather_severity", Kind: table.KindFloat})
	}
	cols = append(cols,
		table.Column{Name: "dep_hour_mean_severity", Kind: table.KindFloat},
		table.Column{Name: "dep_hour_storm_obs", Kind: table.KindInt},
		table.Column{Name: "region_storm_flag", Kind: table.KindInt},
	)
	for _, name := range entity.RegistryColumns {
		cols = append(cols, table.Column{Name: name, Kind: table.KindString})
	}

	t := table.New(cols...)

	depMatches := m.matchSide(ctx, fl.Records, sideDeparture)
	arrMatches := m.matchSide(ctx, fl.Records, sideArrival)

	for i := range fl.Records {
		rec := &fl.Records[i]
		row := make([]*string, 0, len(cols))

		for _, name := range fl.SourceCols {
			v := rec.Passthrough[name]
			row = append(row, table.String(v))
		}

		row = appendWeather(row, depMatches[i])
		row = appendWeather(row, arrMatches[i])
		row = m.appendRegional(row, rec)
		row = m.appendRegistry(row, rec)

		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	logger.Infof("Enriched %d flights into %d columns.", t.NumRows(), len(t.Cols))
	return t, nil
}

type side int

const (
	sideDeparture side = iota
	sideArrival
)

func (m *Merger) matchSide(ctx context.Context, records []entity.FlightRecord, s side) []*entity.Observation {
	anchors := make([]join.Anchor, len(records))
	name := "dep"
	for i := range records {
		rec := &records[i]
		switch s {
		case sideDeparture:
			anchors[i] = join.Anchor{Key: rec.DepStation, Instant: rec.DepInstant, Valid: rec.DepInstantValid}
		case sideArrival:
			anchors[i] = join.Anchor{Key: rec.ArrStation, Instant: rec.ArrInstant, Valid: rec.ArrInstantValid}
			name = "arr"
		}
	}
	matches := m.matcher.MatchAll(anchors)

	matched := 0
	for _, o := range matches {
		m.recorder.RecordMatch(ctx, name, o != nil)
		if o != nil {
			matched++
		}
	}
	logger.Debugf("Matched %d/%d %s anchors.", matched, len(anchors), name)
	return matches
}

// appendWeather writes one prefixed observation set. An unmatched anchor
// leaves the sensor cells null; the severity cell is still written because
// the score is defined under total missingness (it evaluates to 0.0).
func appendWeather(row []*string, obs *entity.Observation) []*string {
	if obs == nil {
		for range weatherFields {
			row = append(row, nil)
		}
		return append(row, table.Float(weather.Severity(nil)))
	}
	row = append(row,
		table.FloatPtr(obs.WindSpeedKt),
		table.FloatPtr(obs.VisibilityMi),
		table.FloatPtr(obs.PrecipIn),
		table.FloatPtr(obs.CeilingFt),
		table.FloatPtr(obs.TempF),
	)
	return append(row, table.Float(weather.Severity(obs)))
}

func (m *Merger) appendRegional(row []*string, rec *entity.FlightRecord) []*string {
	var bucket *weather.HourBucket
	if rec.DepInstantValid {
		bucket = m.regional.Lookup(rec.DepInstant)
	}
	if bucket == nil {
		return append(row, nil, nil, table.Int(0))
	}
	flag := int64(0)
	if m.regional.StormFlag(bucket) {
		flag = 1
	}
	return append(row,
		table.Float(bucket.MeanSeverity),
		table.Int(int64(bucket.StormObs)),
		table.Int(flag),
	)
}

func (m *Merger) appendRegistry(row []*string, rec *entity.FlightRecord) []*string {
	var found *entity.RegistryAircraft
	if rec.TailNumber != "" {
		if r, ok := m.registry.ByTail(rec.TailNumber); ok {
			found = &r
		}
	}
	for _, name := range entity.RegistryColumns {
		switch {
		case found != nil:
			row = append(row, table.String(found.Column(name)))
		case m.cfg.ForceStrings:
			row = append(row, table.String(RegistryNotFound))
		default:
			row = append(row, nil)
		}
	}
	return row
}
