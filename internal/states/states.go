// Package states loads OpenSky state-vector telemetry: raw CSV segments out
// of the history tarballs, terminal-area filtering, and the cleaning pass
// that turns raw samples into a deduplicated per-aircraft time series.
package states

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/schema"
	"github.com/tigerroll/flightprep/internal/temporal"
)

var statesResolver = schema.Resolver{
	Alternatives: map[string][]string{
		"time":        {"time", "timestamp"},
		"icao24":      {"icao24"},
		"lat":         {"lat", "latitude"},
		"lon":         {"lon", "longitude"},
		"velocity":    {"velocity"},
		"heading":     {"heading"},
		"vertrate":    {"vertrate"},
		"geoaltitude": {"geoaltitude"},
	},
	Required: []string{"time", "icao24", "lat", "lon"},
}

// Load parses one or more state-vector CSV segments into raw samples. The
// epoch unit of the time column is inferred per load from the median of the
// observed values, since OpenSky dumps switch between seconds and
// milliseconds.
func Load(paths []string) ([]entity.StateVector, error) {
	type rawRow struct {
		epoch  float64
		icao24 string
		fields map[string]*float64
	}

	var raws []rawRow
	var epochs []float64

	for _, path := range paths {
		f, err := schema.ReadCSV(path)
		if err != nil {
			return nil, err
		}
		cols, err := statesResolver.Resolve(f.Header)
		if err != nil {
			return nil, err
		}

		for _, row := range f.Rows {
			epoch, err := strconv.ParseFloat(strings.TrimSpace(f.Cell(row, cols["time"])), 64)
			if err != nil {
				continue
			}
			icao := schema.NormalizeHex(f.Cell(row, cols["icao24"]))
			if icao == "" {
				continue
			}
			fields := make(map[string]*float64, len(entity.StateVectorFieldNames))
			for _, name := range entity.StateVectorFieldNames {
				if i, ok := cols[name]; ok {
					fields[name] = parseFloat(f.Cell(row, i))
				}
			}
			raws = append(raws, rawRow{epoch: epoch, icao24: icao, fields: fields})
			epochs = append(epochs, epoch)
		}
	}

	unit := temporal.InferEpochUnit(epochs)
	points := make([]entity.StateVector, 0, len(raws))
	for _, r := range raws {
		points = append(points, entity.StateVector{
			ICAO24:      r.icao24,
			Time:        temporal.EpochToUTC(r.epoch, unit),
			Lat:         r.fields["lat"],
			Lon:         r.fields["lon"],
			Velocity:    r.fields["velocity"],
			GeoAltitude: r.fields["geoaltitude"],
			VertRate:    r.fields["vertrate"],
			Heading:     r.fields["heading"],
		})
	}
	logger.Infof("Loaded %d state vectors from %d segment(s).", len(points), len(paths))
	return points, nil
}

// FilterBBox keeps points inside the configured terminal-area bounding box.
// Points without a position never pass.
func FilterBBox(points []entity.StateVector, cfg config.AirportConfig) []entity.StateVector {
	kept := points[:0]
	for _, p := range points {
		if p.Lat == nil || p.Lon == nil {
			continue
		}
		if *p.Lat >= cfg.LatMin && *p.Lat <= cfg.LatMax &&
			*p.Lon >= cfg.LonMin && *p.Lon <= cfg.LonMax {
			kept = append(kept, p)
		}
	}
	return kept
}

// Clean prepares the raw samples for feature generation: sort by
// (icao24, time), deduplicate exact (icao24, time) pairs keeping the
// last-written record, forward-fill missing fields within each aircraft, and
// drop rows with negative velocity or altitude.
func Clean(points []entity.StateVector) []entity.StateVector {
	// Stable sort keeps source order within duplicate (entity, instant)
	// pairs, so keeping the last occurrence is last-write-wins.
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].ICAO24 != points[j].ICAO24 {
			return points[i].ICAO24 < points[j].ICAO24
		}
		return points[i].Time.Before(points[j].Time)
	})

	deduped := make([]entity.StateVector, 0, len(points))
	for _, p := range points {
		n := len(deduped)
		if n > 0 && deduped[n-1].ICAO24 == p.ICAO24 && deduped[n-1].Time.Equal(p.Time) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	// Forward-fill within each aircraft series.
	var last *entity.StateVector
	for i := range deduped {
		p := &deduped[i]
		if last != nil && last.ICAO24 == p.ICAO24 {
			fillForward(p, last)
		}
		last = p
	}

	cleaned := deduped[:0]
	for _, p := range deduped {
		if p.Velocity != nil && *p.Velocity < 0 {
			continue
		}
		if p.GeoAltitude != nil && *p.GeoAltitude < 0 {
			continue
		}
		cleaned = append(cleaned, p)
	}
	logger.Infof("Cleaned state vectors: %d -> %d rows.", len(points), len(cleaned))
	return cleaned
}

func fillForward(p, prev *entity.StateVector) {
	if p.Lat == nil {
		p.Lat = prev.Lat
	}
	if p.Lon == nil {
		p.Lon = prev.Lon
	}
	if p.Velocity == nil {
		p.Velocity = prev.Velocity
	}
	if p.GeoAltitude == nil {
		p.GeoAltitude = prev.GeoAltitude
	}
	if p.VertRate == nil {
		p.VertRate = prev.VertRate
	}
	if p.Heading == nil {
		p.Heading = prev.Heading
	}
}

// GroupByAircraft splits a cleaned (sorted) series into per-aircraft slices,
// preserving time order within each.
func GroupByAircraft(points []entity.StateVector) map[string][]entity.StateVector {
	groups := make(map[string][]entity.StateVector)
	for _, p := range points {
		groups[p.ICAO24] = append(groups[p.ICAO24], p)
	}
	return groups
}

func parseFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
