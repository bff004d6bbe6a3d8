// Package profile computes a quick structural summary of an enriched
// dataset: row count, the most-null columns, numeric descriptions for the
// focus columns, and top value counts for the categorical ones. The summary
// is a sanity check for a finished run, not an analysis product.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tigerroll/flightprep/internal/logger"
	"github.com/tigerroll/flightprep/internal/table"
)

// Options selects which columns to describe. The yaml tags let job property
// overrides bind onto the struct.
type Options struct {
	// TopNullColumns limits the null-percentage ranking.
	TopNullColumns int `yaml:"top_null_columns"`
	// NumericColumns are described with count/null/mean/std/min/median/max.
	NumericColumns []string `yaml:"numeric_columns"`
	// CategoricalColumns get top-K value counts.
	CategoricalColumns []string `yaml:"categorical_columns"`
	// TopK limits each categorical ranking.
	TopK int `yaml:"top_k"`
}

// DefaultOptions matches the usual post-join inspection set.
func DefaultOptions() Options {
	return Options{
		TopNullColumns: 15,
		NumericColumns: []string{
			"ArrDelay", "DepDelay",
			"dep_weather_severity", "arr_weather_severity",
			"dep_hour_mean_severity",
		},
		CategoricalColumns: []string{"aircraft_manufacturer", "aircraft_model", "registrant_state"},
		TopK:               10,
	}
}

// ColumnNulls is one entry of the null-percentage ranking.
type ColumnNulls struct {
	Name    string
	Nulls   int
	Percent float64
}

// NumericSummary describes one numeric column. Statistic pointers are nil
// when not computable (no parseable values, or fewer than two for Std).
type NumericSummary struct {
	Name   string
	Count  int
	Nulls  int
	Mean   *float64
	Std    *float64
	Min    *float64
	Median *float64
	Max    *float64
}

// ValueCount is one entry of a categorical top-K ranking.
type ValueCount struct {
	Value string
	Count int
}

// Summary is the complete dataset profile.
type Summary struct {
	Rows        int
	Columns     int
	TopNulls    []ColumnNulls
	Numeric     []NumericSummary
	Categorical map[string][]ValueCount
}

// Summarize profiles the table. Columns named in the options but absent from
// the table are skipped silently; profiles run against outputs of several
// pipeline stages with different column sets.
func Summarize(t *table.Table, opts Options) *Summary {
	s := &Summary{
		Rows:        t.NumRows(),
		Columns:     len(t.Cols),
		Categorical: make(map[string][]ValueCount),
	}

	s.TopNulls = topNulls(t, opts.TopNullColumns)

	for _, name := range opts.NumericColumns {
		if _, ok := t.ColumnIndex(name); !ok {
			continue
		}
		s.Numeric = append(s.Numeric, describeNumeric(t, name))
	}
	for _, name := range opts.CategoricalColumns {
		if _, ok := t.ColumnIndex(name); !ok {
			continue
		}
		s.Categorical[name] = topValues(t, name, opts.TopK)
	}
	return s
}

func topNulls(t *table.Table, limit int) []ColumnNulls {
	entries := make([]ColumnNulls, 0, len(t.Cols))
	for i, col := range t.Cols {
		nulls := 0
		for _, row := range t.Rows {
			if row[i] == nil || *row[i] == "" {
				nulls++
			}
		}
		pct := 0.0
		if len(t.Rows) > 0 {
			pct = 100 * float64(nulls) / float64(len(t.Rows))
		}
		entries = append(entries, ColumnNulls{Name: col.Name, Nulls: nulls, Percent: pct})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Nulls > entries[j].Nulls
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func describeNumeric(t *table.Table, name string) NumericSummary {
	out := NumericSummary{Name: name}
	var values []float64
	for row := 0; row < t.NumRows(); row++ {
		cell := t.Cell(row, name)
		if cell == nil || strings.TrimSpace(*cell) == "" {
			out.Nulls++
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(*cell), 64)
		if err != nil {
			out.Nulls++
			continue
		}
		values = append(values, v)
	}
	out.Count = len(values)
	if len(values) == 0 {
		return out
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	out.Mean = ptr(mean)
	out.Min = ptr(sorted[0])
	out.Max = ptr(sorted[len(sorted)-1])
	out.Median = ptr(medianOfSorted(sorted))

	if len(values) >= 2 {
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		out.Std = ptr(math.Sqrt(ss / float64(len(values)-1)))
	}
	return out
}

func topValues(t *table.Table, name string, k int) []ValueCount {
	counts := make(map[string]int)
	for row := 0; row < t.NumRows(); row++ {
		cell := t.Cell(row, name)
		if cell == nil || *cell == "" {
			continue
		}
		counts[*cell]++
	}
	entries := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		entries = append(entries, ValueCount{Value: v, Count: n})
	}
	// Count descending, value ascending for a stable ranking.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if k > 0 && len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// Log writes the summary through the application logger.
func (s *Summary) Log() {
	logger.Infof("Dataset: %d rows x %d columns.", s.Rows, s.Columns)
	for _, e := range s.TopNulls {
		if e.Nulls == 0 {
			continue
		}
		logger.Infof("  nulls %6.2f%% (%d) %s", e.Percent, e.Nulls, e.Name)
	}
	for _, n := range s.Numeric {
		logger.Infof("  %s: count=%d nulls=%d mean=%s std=%s min=%s median=%s max=%s",
			n.Name, n.Count, n.Nulls, fmtStat(n.Mean), fmtStat(n.Std), fmtStat(n.Min), fmtStat(n.Median), fmtStat(n.Max))
	}
	for name, values := range s.Categorical {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("%s=%d", v.Value, v.Count))
		}
		logger.Infof("  top %s: %s", name, strings.Join(parts, ", "))
	}
}

func fmtStat(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'g', 6, 64)
}

func medianOfSorted(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func ptr(f float64) *float64 { return &f }
