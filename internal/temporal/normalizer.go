// Package temporal converts the heterogeneous raw timestamp representations
// of the sources (epoch seconds/milliseconds, local HHMM clock values plus a
// date, ISO strings) into canonical UTC instants. Values that cannot be
// represented (malformed clock values, DST gaps and repeats) resolve to an
// explicit invalid sentinel instead of an error; downstream joins treat the
// sentinel as a missing key.
package temporal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tigerroll/flightprep/internal/exception"
)

const stageName = "temporal"

// EpochUnit is the unit of a raw epoch timestamp column.
type EpochUnit int

const (
	// UnitSeconds interprets raw epoch values as seconds.
	UnitSeconds EpochUnit = iota
	// UnitMillis interprets raw epoch values as milliseconds.
	UnitMillis
)

// epochUnitThreshold separates second- from millisecond-scale epoch values.
// Epoch seconds stay below 1e12 until the year 33658.
const epochUnitThreshold = 1e12

// InferEpochUnit infers the unit of a dataset's epoch column by comparing
// the median of the observed values against the threshold. The inference is
// applied per dataset because different sources use different units.
func InferEpochUnit(samples []float64) EpochUnit {
	if len(samples) == 0 {
		return UnitSeconds
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	if median > epochUnitThreshold {
		return UnitMillis
	}
	return UnitSeconds
}

// EpochToUTC converts a raw epoch value of the given unit to a UTC instant.
func EpochToUTC(v float64, unit EpochUnit) time.Time {
	switch unit {
	case UnitMillis:
		return time.UnixMilli(int64(v)).UTC()
	default:
		sec := int64(v)
		nsec := int64((v - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC()
	}
}

// MinutesAfterMidnight splits a 4-digit HHMM clock value into minutes after
// midnight. The value is conceptually zero-padded to 4 digits first, so 5
// reads as 00:05 and 905 as 09:05. ok is false for negative values and for
// hours of 24 or more (BTS writes "2400" for end-of-day midnight; it has no
// representable civil instant on the same date).
func MinutesAfterMidnight(hhmm int) (int, bool) {
	if hhmm < 0 {
		return 0, false
	}
	hour := hhmm / 100
	minute := hhmm % 100
	if hour >= 24 || minute >= 60 {
		return 0, false
	}
	return 60*hour + minute, true
}

// Normalizer localizes civil timestamps to the airport's time zone and
// converts them to UTC.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the configured IANA zone.
func NewNormalizer(timezone string) (*Normalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, exception.NewSchemaError(stageName,
			fmt.Sprintf("unknown timezone %q", timezone), err)
	}
	return &Normalizer{loc: loc}, nil
}

// Location returns the normalizer's civil time zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// LocalCivilToUTC localizes the (date, HHMM clock value) pair and converts it
// to UTC. ok is false when the clock value is unrepresentable or the civil
// time is nonexistent (spring-forward gap) or ambiguous (fall-back repeat);
// such anchors stay unmatched downstream rather than aborting the batch.
func (n *Normalizer) LocalCivilToUTC(date time.Time, hhmm int) (time.Time, bool) {
	mam, ok := MinutesAfterMidnight(hhmm)
	if !ok {
		return time.Time{}, false
	}
	hour := mam / 60
	minute := mam % 60

	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, n.loc)

	// A nonexistent civil time gets normalized to a different wall clock.
	if t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, false
	}
	// An ambiguous civil time occurs twice; the instant one offset-change
	// away shows the same wall clock.
	if sameWallClock(t.Add(time.Hour), t, n.loc) || sameWallClock(t.Add(-time.Hour), t, n.loc) {
		return time.Time{}, false
	}

	return t.UTC(), true
}

func sameWallClock(a, b time.Time, loc *time.Location) bool {
	a = a.In(loc)
	b = b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}

// ArrivalDate applies the overnight rollover rule: when the scheduled arrival
// clock time precedes the scheduled departure clock time on the same nominal
// date, the arrival happens on the following calendar day. Either clock value
// being unrepresentable leaves the date unchanged.
func ArrivalDate(flightDate time.Time, depHHMM, arrHHMM int) time.Time {
	depMAM, depOK := MinutesAfterMidnight(depHHMM)
	arrMAM, arrOK := MinutesAfterMidnight(arrHHMM)
	if depOK && arrOK && arrMAM < depMAM {
		return flightDate.AddDate(0, 0, 1)
	}
	return flightDate
}

// flightDateLayouts are the date spellings seen across TranStats exports.
var flightDateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "20060102"}

// ParseFlightDate parses a flight date string in any of the known TranStats
// formats into a midnight-UTC date. ok is false for unparseable values.
func ParseFlightDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flightDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseObservationTime parses a weather observation timestamp. The IEM export
// writes naive "YYYY-MM-DD HH:MM" UTC strings; ISO 8601 variants are accepted
// too. ok is false for unparseable values.
func ParseObservationTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// TruncateHour truncates an instant to the start of its hour. Regional
// weather aggregation groups observations by this value.
func TruncateHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}
