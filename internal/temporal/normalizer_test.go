package temporal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/temporal"
)

func TestInferEpochUnit(t *testing.T) {
	// Second-scale medians stay seconds even with a millisecond outlier.
	secs := []float64{1554200000, 1554200010, 1554200020, 1700000000000}
	assert.Equal(t, temporal.UnitSeconds, temporal.InferEpochUnit(secs))

	millis := []float64{1554200000000, 1554200010000, 1554200020000}
	assert.Equal(t, temporal.UnitMillis, temporal.InferEpochUnit(millis))

	// Empty input defaults to seconds.
	assert.Equal(t, temporal.UnitSeconds, temporal.InferEpochUnit(nil))
}

func TestEpochToUTCRoundTrip(t *testing.T) {
	instant := time.Date(2019, 4, 2, 12, 34, 56, 0, time.UTC)

	asSeconds := temporal.EpochToUTC(float64(instant.Unix()), temporal.UnitSeconds)
	assert.True(t, asSeconds.Equal(instant))

	asMillis := temporal.EpochToUTC(float64(instant.UnixMilli()), temporal.UnitMillis)
	assert.True(t, asMillis.Equal(instant))
}

func TestMinutesAfterMidnight(t *testing.T) {
	tests := []struct {
		hhmm    int
		minutes int
		ok      bool
	}{
		{0, 0, true},
		{5, 5, true},      // reads as 00:05
		{905, 545, true},  // reads as 09:05
		{1305, 785, true}, // 13:05
		{2359, 1439, true},
		{2400, 0, false}, // end-of-day midnight is unrepresentable
		{2500, 0, false},
		{1160, 0, false}, // minute overflow
		{-1, 0, false},
	}
	for _, tc := range tests {
		minutes, ok := temporal.MinutesAfterMidnight(tc.hhmm)
		assert.Equal(t, tc.ok, ok, "hhmm=%d", tc.hhmm)
		if tc.ok {
			assert.Equal(t, tc.minutes, minutes, "hhmm=%d", tc.hhmm)
		}
	}
}

func TestLocalCivilToUTC(t *testing.T) {
	n, err := temporal.NewNormalizer("America/New_York")
	require.NoError(t, err)

	// Normal EST time: 13:05 local is 18:05 UTC.
	date := time.Date(2019, 1, 15, 0, 0, 0, 0, time.UTC)
	instant, ok := n.LocalCivilToUTC(date, 1305)
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 1, 15, 18, 5, 0, 0, time.UTC), instant)

	// Spring-forward gap: 2:30 does not exist on 2019-03-10.
	gapDate := time.Date(2019, 3, 10, 0, 0, 0, 0, time.UTC)
	_, ok = n.LocalCivilToUTC(gapDate, 230)
	assert.False(t, ok)

	// Fall-back repeat: 1:30 occurs twice on 2019-11-03.
	repeatDate := time.Date(2019, 11, 3, 0, 0, 0, 0, time.UTC)
	_, ok = n.LocalCivilToUTC(repeatDate, 130)
	assert.False(t, ok)

	// 2400 never converts.
	_, ok = n.LocalCivilToUTC(date, 2400)
	assert.False(t, ok)
}

func TestNewNormalizerUnknownZone(t *testing.T) {
	_, err := temporal.NewNormalizer("Not/AZone")
	assert.Error(t, err)
}

func TestArrivalDate(t *testing.T) {
	date := time.Date(2019, 4, 2, 0, 0, 0, 0, time.UTC)

	// Overnight: 23:30 departure, 01:10 arrival rolls to the next day.
	assert.Equal(t, date.AddDate(0, 0, 1), temporal.ArrivalDate(date, 2330, 110))

	// Same-day arrival keeps the date.
	assert.Equal(t, date, temporal.ArrivalDate(date, 900, 1100))

	// An unrepresentable clock value leaves the date unchanged.
	assert.Equal(t, date, temporal.ArrivalDate(date, 2400, 110))
}

func TestParseFlightDate(t *testing.T) {
	want := time.Date(2019, 4, 2, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2019-04-02", "4/2/2019", "04/02/2019", "20190402"} {
		got, ok := temporal.ParseFlightDate(raw)
		require.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, got, "raw=%q", raw)
	}

	_, ok := temporal.ParseFlightDate("not a date")
	assert.False(t, ok)
	_, ok = temporal.ParseFlightDate("")
	assert.False(t, ok)
}

func TestParseObservationTime(t *testing.T) {
	want := time.Date(2019, 4, 2, 12, 53, 0, 0, time.UTC)

	got, ok := temporal.ParseObservationTime("2019-04-02 12:53")
	require.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = temporal.ParseObservationTime("2019-04-02 12:53:00")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = temporal.ParseObservationTime("garbage")
	assert.False(t, ok)
}

func TestTruncateHour(t *testing.T) {
	in := time.Date(2019, 4, 2, 12, 53, 17, 0, time.UTC)
	assert.Equal(t, time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC), temporal.TruncateHour(in))
}
