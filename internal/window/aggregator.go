// Package window computes trailing wall-clock window statistics over
// per-aircraft telemetry series. Windows are defined by duration, not row
// count, since sampling is irregular. The aggregation enriches rows in
// place: every input row keeps its own values and gains one column per
// (field, statistic, window) triple for the window ending at its instant.
package window

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
)

// Spec is one trailing-window feature specification.
type Spec struct {
	// Name suffixes the generated column names.
	Name string
	// Duration is the wall-clock window length.
	Duration time.Duration
	// Fields are the telemetry fields aggregated over this window.
	Fields []string
}

// SpecsFromConfig converts the configured window table.
func SpecsFromConfig(cfg config.FeaturesConfig) []Spec {
	specs := make([]Spec, 0, len(cfg.Windows))
	for _, w := range cfg.Windows {
		specs = append(specs, Spec{
			Name:     w.Name,
			Duration: time.Duration(w.Seconds) * time.Second,
			Fields:   w.Fields,
		})
	}
	return specs
}

// statNames lists the computed statistics in output order.
var statNames = []string{"mean", "std", "min", "max", "median", "count"}

// Columns returns the generated column names in deterministic order:
// specs outermost, then fields, then statistics.
func Columns(specs []Spec) []string {
	var cols []string
	for _, spec := range specs {
		for _, field := range spec.Fields {
			for _, stat := range statNames {
				cols = append(cols, fmt.Sprintf("%s_%s_%s", field, stat, spec.Name))
			}
		}
	}
	return cols
}

// Aggregate computes the trailing-window statistics for one entity's points,
// which must be sorted ascending by instant. The result is aligned with the
// input rows; each map is keyed by generated column name, nil values mean the
// statistic is not computable (a single-sample standard deviation reports
// null, never zero). An entity with a single timestamp yields valid
// degenerate windows with count 1.
func Aggregate(points []entity.StateVector, specs []Spec) []map[string]*float64 {
	results := make([]map[string]*float64, len(points))
	for i := range results {
		results[i] = make(map[string]*float64)
	}

	for _, spec := range specs {
		start := 0
		for i := range points {
			// Trailing window [t - duration, t], inclusive of the row itself.
			cutoff := points[i].Time.Add(-spec.Duration)
			for points[start].Time.Before(cutoff) {
				start++
			}
			for _, field := range spec.Fields {
				values := make([]float64, 0, i-start+1)
				for j := start; j <= i; j++ {
					if v := points[j].Field(field); v != nil {
						values = append(values, *v)
					}
				}
				writeStats(results[i], field, spec.Name, values)
			}
		}
	}
	return results
}

func writeStats(out map[string]*float64, field, window string, values []float64) {
	key := func(stat string) string {
		return fmt.Sprintf("%s_%s_%s", field, stat, window)
	}

	count := float64(len(values))
	out[key("count")] = &count

	if len(values) == 0 {
		out[key("mean")] = nil
		out[key("std")] = nil
		out[key("min")] = nil
		out[key("max")] = nil
		out[key("median")] = nil
		return
	}

	mean := 0.0
	minV := values[0]
	maxV := values[0]
	for _, v := range values {
		mean += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	mean /= count

	out[key("mean")] = ptr(mean)
	out[key("min")] = ptr(minV)
	out[key("max")] = ptr(maxV)
	out[key("median")] = ptr(median(values))

	// Sample standard deviation needs at least two samples; a single-sample
	// window has no computable variance.
	if len(values) < 2 {
		out[key("std")] = nil
		return
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	out[key("std")] = ptr(math.Sqrt(ss / (count - 1)))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func ptr(f float64) *float64 {
	return &f
}
