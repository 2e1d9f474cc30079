package cafefinder

import (
	"cmp"
	"slices"
)

// Ranked is a cafe paired with its distance from a reference position.
// HasDistance is false when the distance is not a finite number.
type Ranked struct {
	Cafe        Cafe
	DistanceKm  float64
	HasDistance bool
}

// Rank orders cafes ascending by distance from ref. The sort is stable, so
// equal distances keep input order; cafes without a usable distance go last.
func Rank(cafes []Cafe, ref Position) []Ranked {
	out := make([]Ranked, len(cafes))
	for i, c := range cafes {
		d := Haversine(ref, c.Position())
		out[i] = Ranked{Cafe: c, DistanceKm: d, HasDistance: finite(d)}
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		switch {
		case a.HasDistance && b.HasDistance:
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		case a.HasDistance:
			return -1
		case b.HasDistance:
			return 1
		}
		return 0
	})
	return out
}

// Unranked wraps cafes in load order without distances, for sessions that
// have no reference position yet.
func Unranked(cafes []Cafe) []Ranked {
	out := make([]Ranked, len(cafes))
	for i, c := range cafes {
		out[i] = Ranked{Cafe: c}
	}
	return out
}
