// Package join implements the nearest-key temporal join between flight
// anchors and per-station weather observation series. For each anchor the
// single observation of the same station with minimum absolute time distance
// is selected; anchors whose nearest observation lies outside the tolerance
// window stay unmatched.
package join

import (
	"sort"
	"time"

	"github.com/tigerroll/flightprep/internal/domain/entity"
)

// Anchor is one lookup request: a station key and a scheduled instant.
// Invalid anchors (unrepresentable scheduled times) never match.
type Anchor struct {
	Key     string
	Instant time.Time
	Valid   bool
}

// Matcher holds the candidate observations grouped by station and sorted by
// instant, ready for nearest lookups.
type Matcher struct {
	byKey     map[string][]entity.Observation
	tolerance time.Duration
}

// NewMatcher groups the observations by station and sorts each group
// ascending by instant. Sorting here is a correctness precondition of the
// monotonic merge scan, not an optimization.
func NewMatcher(observations []entity.Observation, tolerance time.Duration) *Matcher {
	byKey := make(map[string][]entity.Observation)
	for _, o := range observations {
		byKey[o.Station] = append(byKey[o.Station], o)
	}
	for key := range byKey {
		group := byKey[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Valid.Before(group[j].Valid)
		})
	}
	return &Matcher{byKey: byKey, tolerance: tolerance}
}

// Match returns the nearest observation in the anchor's key-group, or nil
// when the anchor is invalid, the group is empty, or the minimum distance
// exceeds the tolerance. Equidistant candidates resolve to the earlier one.
func (m *Matcher) Match(key string, instant time.Time) *entity.Observation {
	group := m.byKey[key]
	if len(group) == 0 {
		return nil
	}

	// Insertion point of the anchor instant within the sorted group.
	i := sort.Search(len(group), func(j int) bool {
		return !group[j].Valid.Before(instant)
	})

	var best *entity.Observation
	// The candidate before the insertion point is checked first so an exact
	// tie prefers the earlier observation.
	if i > 0 {
		best = &group[i-1]
	}
	if i < len(group) {
		if best == nil || absDistance(group[i].Valid, instant) < absDistance(best.Valid, instant) {
			best = &group[i]
		}
	}
	if best == nil || absDistance(best.Valid, instant) > m.tolerance {
		return nil
	}
	return best
}

// MatchAll resolves every anchor to its nearest in-tolerance observation.
// The result is aligned with the input. Anchors are processed globally sorted
// by instant, which lets each key-group cursor advance monotonically.
func (m *Matcher) MatchAll(anchors []Anchor) []*entity.Observation {
	order := make([]int, 0, len(anchors))
	for i, a := range anchors {
		if a.Valid {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return anchors[order[i]].Instant.Before(anchors[order[j]].Instant)
	})

	cursors := make(map[string]int, len(m.byKey))
	results := make([]*entity.Observation, len(anchors))

	for _, idx := range order {
		a := anchors[idx]
		group := m.byKey[a.Key]
		if len(group) == 0 {
			continue
		}
		cur := cursors[a.Key]
		// Advance while the next candidate is strictly closer; a tie keeps
		// the earlier candidate.
		for cur+1 < len(group) &&
			absDistance(group[cur+1].Valid, a.Instant) < absDistance(group[cur].Valid, a.Instant) {
			cur++
		}
		cursors[a.Key] = cur

		if absDistance(group[cur].Valid, a.Instant) <= m.tolerance {
			results[idx] = &group[cur]
		}
	}
	return results
}

func absDistance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
