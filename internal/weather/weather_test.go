package weather_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/weather"
)

func f(v float64) *float64 { return &v }

func TestSeverityAllDefaultsIsZero(t *testing.T) {
	// All readings missing: wind 0, visibility 10, no precip, high ceiling.
	assert.Equal(t, 0.0, weather.Severity(&entity.Observation{}))
	// A nil observation (no match at all) scores the same.
	assert.Equal(t, 0.0, weather.Severity(nil))
}

func TestSeverityComponents(t *testing.T) {
	// Wind contributes linearly.
	assert.InDelta(t, 1.0, weather.Severity(&entity.Observation{WindSpeedKt: f(30)}), 1e-9)

	// Zero visibility contributes a full point.
	assert.InDelta(t, 1.0, weather.Severity(&entity.Observation{VisibilityMi: f(0)}), 1e-9)

	// Visibility clamps at 10; more does not reduce the score below zero.
	assert.InDelta(t, 0.0, weather.Severity(&entity.Observation{VisibilityMi: f(25)}), 1e-9)

	// Any precipitation is one point.
	assert.InDelta(t, 1.0, weather.Severity(&entity.Observation{PrecipIn: f(0.01)}), 1e-9)
	assert.InDelta(t, 0.0, weather.Severity(&entity.Observation{PrecipIn: f(0)}), 1e-9)

	// A ceiling under 1000 ft is one point.
	assert.InDelta(t, 1.0, weather.Severity(&entity.Observation{CeilingFt: f(500)}), 1e-9)
	assert.InDelta(t, 0.0, weather.Severity(&entity.Observation{CeilingFt: f(2500)}), 1e-9)

	// Composite.
	obs := &entity.Observation{
		WindSpeedKt:  f(15),
		VisibilityMi: f(5),
		PrecipIn:     f(0.2),
		CeilingFt:    f(800),
	}
	assert.InDelta(t, 0.5+0.5+1+1, weather.Severity(obs), 1e-9)
}

func weatherCfg() config.WeatherConfig {
	return config.WeatherConfig{
		Severity: config.SeverityConfig{StormThreshold: 2.0},
		Regional: config.RegionalConfig{MeanThreshold: 1.0, MinStormObs: 3},
	}
}

func TestRegionalIndexBuckets(t *testing.T) {
	hour := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	observations := []entity.Observation{
		{Station: "BWI", Valid: hour.Add(5 * time.Minute), WindSpeedKt: f(60), VisibilityMi: f(0)},  // severity 3.0
		{Station: "DCA", Valid: hour.Add(20 * time.Minute)},                                         // severity 0.0
		{Station: "IAD", Valid: hour.Add(40 * time.Minute), PrecipIn: f(0.5), CeilingFt: f(400)},    // severity 3.0
		{Station: "BWI", Valid: hour.Add(90 * time.Minute)},                                         // next hour
	}
	idx := weather.NewRegionalIndex(observations, weatherCfg())

	b := idx.Lookup(hour.Add(59 * time.Minute))
	require.NotNil(t, b)
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 2, b.StormObs)
	assert.InDelta(t, 2.0, b.MeanSeverity, 1e-9)

	next := idx.Lookup(hour.Add(time.Hour))
	require.NotNil(t, next)
	assert.Equal(t, 1, next.Count)

	assert.Nil(t, idx.Lookup(hour.Add(-time.Hour)))
}

func TestStormFlagORSemantics(t *testing.T) {
	hour := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)

	// Mean above threshold, storm count below minimum: flag via mean alone.
	byMean := weather.NewRegionalIndex([]entity.Observation{
		{Station: "BWI", Valid: hour, WindSpeedKt: f(60), VisibilityMi: f(0)}, // severity 3.0
	}, weatherCfg())
	assert.True(t, byMean.StormFlag(byMean.Lookup(hour)))

	// Mean below threshold, storm count at minimum: flag via count alone.
	calm := entity.Observation{Station: "BWI", Valid: hour}
	stormy := entity.Observation{Station: "BWI", Valid: hour, WindSpeedKt: f(45), VisibilityMi: f(2)} // severity 2.3
	byCount := weather.NewRegionalIndex([]entity.Observation{
		stormy, stormy, stormy,
		calm, calm, calm, calm, calm, calm, calm, calm, calm, calm, calm, calm,
	}, weatherCfg())
	b := byCount.Lookup(hour)
	require.NotNil(t, b)
	assert.LessOrEqual(t, b.MeanSeverity, 1.0)
	assert.Equal(t, 3, b.StormObs)
	assert.True(t, byCount.StormFlag(b))

	// Neither condition: no flag.
	quiet := weather.NewRegionalIndex([]entity.Observation{calm, calm}, weatherCfg())
	assert.False(t, quiet.StormFlag(quiet.Lookup(hour)))

	// A missing bucket never flags.
	assert.False(t, quiet.StormFlag(nil))
}

func TestRegionalIndexOrderInvariant(t *testing.T) {
	hour := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	observations := []entity.Observation{
		{Station: "BWI", Valid: hour.Add(1 * time.Minute), WindSpeedKt: f(60), VisibilityMi: f(0)},
		{Station: "DCA", Valid: hour.Add(2 * time.Minute)},
		{Station: "IAD", Valid: hour.Add(3 * time.Minute), PrecipIn: f(0.5)},
		{Station: "MTN", Valid: hour.Add(4 * time.Minute), CeilingFt: f(300)},
	}
	want := weather.NewRegionalIndex(observations, weatherCfg()).Lookup(hour)

	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]entity.Observation, len(observations))
		copy(shuffled, observations)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := weather.NewRegionalIndex(shuffled, weatherCfg()).Lookup(hour)
		require.NotNil(t, got)
		assert.InDelta(t, want.MeanSeverity, got.MeanSeverity, 1e-9)
		assert.Equal(t, want.StormObs, got.StormObs)
		assert.Equal(t, want.Count, got.Count)
	}
}
