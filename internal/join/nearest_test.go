package join_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/domain/entity"
	"github.com/tigerroll/flightprep/internal/join"
)

func obs(station string, t time.Time) entity.Observation {
	return entity.Observation{Station: station, Valid: t}
}

func TestMatchNearestWithinTolerance(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	m := join.NewMatcher([]entity.Observation{
		obs("BWI", base.Add(-40*time.Minute)),
		obs("BWI", base.Add(10*time.Minute)),
		obs("BWI", base.Add(90*time.Minute)),
	}, time.Hour)

	got := m.Match("BWI", base)
	require.NotNil(t, got)
	assert.True(t, got.Valid.Equal(base.Add(10*time.Minute)))
}

func TestMatchOutsideToleranceIsNil(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	m := join.NewMatcher([]entity.Observation{
		obs("BWI", base.Add(2*time.Hour)),
	}, time.Hour)

	assert.Nil(t, m.Match("BWI", base))
}

func TestMatchUnknownKeyIsNil(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	m := join.NewMatcher([]entity.Observation{obs("BWI", base)}, time.Hour)

	assert.Nil(t, m.Match("JFK", base))
}

func TestMatchTieBreakPrefersEarlier(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	earlier := base.Add(-15 * time.Minute)
	later := base.Add(15 * time.Minute)
	m := join.NewMatcher([]entity.Observation{
		obs("BWI", later),
		obs("BWI", earlier),
	}, time.Hour)

	got := m.Match("BWI", base)
	require.NotNil(t, got)
	assert.True(t, got.Valid.Equal(earlier))
}

func TestMatchAllAlignment(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	m := join.NewMatcher([]entity.Observation{
		obs("BWI", base),
		obs("BWI", base.Add(time.Hour)),
		obs("JFK", base.Add(30*time.Minute)),
	}, time.Hour)

	anchors := []join.Anchor{
		{Key: "BWI", Instant: base.Add(50 * time.Minute), Valid: true},
		{Key: "JFK", Instant: base.Add(25 * time.Minute), Valid: true},
		{Key: "BWI", Instant: base.Add(5 * time.Minute), Valid: true},
		{Key: "BWI", Instant: base, Valid: false}, // invalid anchors never match
		{Key: "LAX", Instant: base, Valid: true},  // empty key-group
	}
	results := m.MatchAll(anchors)
	require.Len(t, results, len(anchors))

	require.NotNil(t, results[0])
	assert.True(t, results[0].Valid.Equal(base.Add(time.Hour)))
	require.NotNil(t, results[1])
	assert.Equal(t, "JFK", results[1].Station)
	require.NotNil(t, results[2])
	assert.True(t, results[2].Valid.Equal(base))
	assert.Nil(t, results[3])
	assert.Nil(t, results[4])
}

func TestMatchAllTieBreakMatchesSingleLookup(t *testing.T) {
	base := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	earlier := base.Add(-20 * time.Minute)
	later := base.Add(20 * time.Minute)
	m := join.NewMatcher([]entity.Observation{
		obs("BWI", earlier),
		obs("BWI", later),
	}, time.Hour)

	results := m.MatchAll([]join.Anchor{{Key: "BWI", Instant: base, Valid: true}})
	require.NotNil(t, results[0])
	assert.True(t, results[0].Valid.Equal(earlier))
}
