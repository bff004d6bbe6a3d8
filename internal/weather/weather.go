// Package weather parses IEM/ASOS station exports into observation records
// and computes the derived severity features: the per-observation severity
// score and the hourly regional index.
package weather

import (
	"strings"
	"time"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/schema"
	"github.com/tigerroll/flightprep/internal/temporal"
)

// Severity fallback defaults, applied per missing field so the score is
// always defined even under partial missingness.
const (
	defaultVisibilityMi = 10.0
	defaultCeilingFt    = 99999.0
	defaultWindKt       = 0.0
	defaultPrecipIn     = 0.0
)

// Severity computes the composite weather severity score:
//
//	(wind/30) + (1 - clamp(vis, 0, 10)/10) + (precip > 0 ? 1 : 0) + (ceiling < 1000 ? 1 : 0)
//
// A nil observation (no match) scores with all defaults, which yields 0.0.
func Severity(obs *entity.Observation) float64 {
	wind := defaultWindKt
	vis := defaultVisibilityMi
	precip := defaultPrecipIn
	ceiling := defaultCeilingFt

	if obs != nil {
		if obs.WindSpeedKt != nil {
			wind = *obs.WindSpeedKt
		}
		if obs.VisibilityMi != nil {
			vis = *obs.VisibilityMi
		}
		if obs.PrecipIn != nil {
			precip = *obs.PrecipIn
		}
		if obs.CeilingFt != nil {
			ceiling = *obs.CeilingFt
		}
	}

	if vis < 0 {
		vis = 0
	} else if vis > 10 {
		vis = 10
	}

	score := wind/30.0 + (1.0 - vis/10.0)
	if precip > 0 {
		score++
	}
	if ceiling < 1000 {
		score++
	}
	return score
}

// Loader parses weather CSV exports.
type Loader struct {
	coercer *schema.NullCoercer
}

// NewLoader builds a Loader with the configured null-token coercion.
func NewLoader(cfg config.WeatherConfig) *Loader {
	return &Loader{coercer: schema.NewNullCoercer(cfg.NullTokens)}
}

var weatherResolver = schema.Resolver{
	Alternatives: map[string][]string{
		"station": {"station", "STATION"},
		"valid":   {"valid", "VALID", "valid_ts"},
		"sknt":    {"sknt"},
		"vsby":    {"vsby"},
		"p01i":    {"p01i"},
		"skyl1":   {"skyl1"},
		"tmpf":    {"tmpf"},
	},
	Required: []string{"station", "valid"},
}

// Load parses a weather CSV file into observations. Rows with unparseable
// observation timestamps are dropped (their key is missing); sensor fields
// carrying null tokens become nil readings.
func (l *Loader) Load(path string) ([]entity.Observation, error) {
	f, err := schema.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := weatherResolver.Resolve(f.Header)
	if err != nil {
		return nil, err
	}

	obs := make([]entity.Observation, 0, len(f.Rows))
	dropped := 0
	for _, row := range f.Rows {
		valid, ok := temporal.ParseObservationTime(f.Cell(row, cols["valid"]))
		if !ok {
			dropped++
			continue
		}
		o := entity.Observation{
			Station: strings.ToUpper(strings.TrimSpace(f.Cell(row, cols["station"]))),
			Valid:   valid,
		}
		if i, ok := cols["sknt"]; ok {
			o.WindSpeedKt = l.coercer.Float(f.Cell(row, i))
		}
		if i, ok := cols["vsby"]; ok {
			o.VisibilityMi = l.coercer.Float(f.Cell(row, i))
		}
		if i, ok := cols["p01i"]; ok {
			o.PrecipIn = l.coercer.Float(f.Cell(row, i))
		}
		if i, ok := cols["skyl1"]; ok {
			o.CeilingFt = l.coercer.Float(f.Cell(row, i))
		}
		if i, ok := cols["tmpf"]; ok {
			o.TempF = l.coercer.Float(f.Cell(row, i))
		}
		obs = append(obs, o)
	}
	if dropped > 0 {
		logger.Warnf("Dropped %d weather rows with unparseable timestamps from %s.", dropped, path)
	}
	logger.Infof("Loaded %d weather observations from %s.", len(obs), path)
	return obs, nil
}

// HourBucket is the hourly regional aggregate over all stations.
type HourBucket struct {
	// Hour is the truncated observation hour in UTC.
	Hour time.Time
	// MeanSeverity is the mean severity score of the hour's observations.
	MeanSeverity float64
	// StormObs counts observations at or above the storm threshold.
	StormObs int
	// Count is the total observations in the hour.
	Count int
}

// RegionalIndex aggregates observations by truncated hour.
type RegionalIndex struct {
	buckets map[time.Time]*HourBucket

	meanThreshold float64
	minStormObs   int
}

// NewRegionalIndex builds the hourly index over all observations. An
// observation counts as a storm observation when its severity score reaches
// the configured storm threshold.
func NewRegionalIndex(observations []entity.Observation, cfg config.WeatherConfig) *RegionalIndex {
	idx := &RegionalIndex{
		buckets:       make(map[time.Time]*HourBucket),
		meanThreshold: cfg.Regional.MeanThreshold,
		minStormObs:   cfg.Regional.MinStormObs,
	}

	sums := make(map[time.Time]float64)
	for i := range observations {
		o := &observations[i]
		hour := temporal.TruncateHour(o.Valid)
		b := idx.buckets[hour]
		if b == nil {
			b = &HourBucket{Hour: hour}
			idx.buckets[hour] = b
		}
		sev := Severity(o)
		sums[hour] += sev
		b.Count++
		if sev >= cfg.Severity.StormThreshold {
			b.StormObs++
		}
	}
	for hour, b := range idx.buckets {
		b.MeanSeverity = sums[hour] / float64(b.Count)
	}
	return idx
}

// Lookup returns the bucket for the hour containing t, nil when the region
// has no observations that hour.
func (idx *RegionalIndex) Lookup(t time.Time) *HourBucket {
	return idx.buckets[temporal.TruncateHour(t)]
}

// StormFlag reports whether the bucket crosses either regional threshold:
// mean severity above the mean threshold OR storm observations at or above
// the minimum. The two conditions combine with OR, not AND.
func (idx *RegionalIndex) StormFlag(b *HourBucket) bool {
	if b == nil {
		return false
	}
	return b.MeanSeverity > idx.meanThreshold || b.StormObs >= idx.minStormObs
}
