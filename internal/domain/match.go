package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrRadiusWithoutAnchor is returned for searches bounded by a radius but lacking a location point.
var ErrRadiusWithoutAnchor = errors.New("search radius set without anchor coordinates")

// MatchFilter is the conjunction of constraints a saved search imposes on active listings.
type MatchFilter struct {
	MaxPrice    *int
	MinRooms    *float64
	MinArea     *int
	Anchor      *GeoPoint
	RadiusKm    *float64
	Condition   Condition
	NearBus     bool
	NearTrain   bool
	PriorityHLM bool
	// Limit caps the result size; zero means unbounded.
	Limit int
}

// Match is a listing that satisfied a filter.
type Match struct {
	Listing    Listing
	DistanceKm *float64
}

// FilterFor derives the match filter of a saved search.
func FilterFor(s SavedSearch, limit int) (MatchFilter, error) {
	cond := s.Condition
	if cond == "" {
		cond = ConditionAny
	}
	switch cond {
	case ConditionAny, ConditionNew, ConditionRenovated, ConditionNewOrRenovated:
	default:
		return MatchFilter{}, fmt.Errorf("unknown condition %q", cond)
	}

	f := MatchFilter{
		MaxPrice:    s.MaxPrice,
		MinRooms:    s.MinRooms,
		MinArea:     s.MinArea,
		Anchor:      s.Anchor,
		Condition:   cond,
		NearBus:     s.NearBus,
		NearTrain:   s.NearTrain,
		PriorityHLM: s.PriorityHLM,
		Limit:       limit,
	}
	if s.RadiusKm != nil && *s.RadiusKm > 0 {
		if s.Anchor == nil {
			return MatchFilter{}, ErrRadiusWithoutAnchor
		}
		f.RadiusKm = s.RadiusKm
	}
	return f, nil
}

// Evaluate reports whether l satisfies every constraint of f.
func (f MatchFilter) Evaluate(l Listing) (Match, bool) {
	m := Match{Listing: l}
	if !l.IsActive {
		return m, false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return m, false
	}
	if f.MinRooms != nil && (l.Rooms == nil || *l.Rooms < *f.MinRooms) {
		return m, false
	}
	if f.MinArea != nil && (l.Area == nil || *l.Area < *f.MinArea) {
		return m, false
	}
	if !f.conditionHolds(l) {
		return m, false
	}
	if f.NearBus && !l.NearBus {
		return m, false
	}
	if f.NearTrain && !l.NearTrain {
		return m, false
	}

	if f.Anchor != nil {
		if pos, ok := l.Coordinates(); ok {
			d := DistanceKm(*f.Anchor, pos)
			m.DistanceKm = &d
		}
	}
	if f.RadiusKm != nil && (m.DistanceKm == nil || *m.DistanceKm > *f.RadiusKm) {
		return m, false
	}
	return m, true
}

func (f MatchFilter) conditionHolds(l Listing) bool {
	switch f.Condition {
	case ConditionNew:
		return l.IsNew
	case ConditionRenovated:
		return l.IsRenovated
	case ConditionNewOrRenovated:
		return l.IsNew || l.IsRenovated
	default:
		return true
	}
}

// Less orders matches: HLM first when prioritized (unknown last), then price, then distance.
func (f MatchFilter) Less(a, b Match) bool {
	if f.PriorityHLM {
		ra, rb := hlmRank(a.Listing.IsHLM), hlmRank(b.Listing.IsHLM)
		if ra != rb {
			return ra < rb
		}
	}
	if a.Listing.Price != b.Listing.Price {
		return a.Listing.Price < b.Listing.Price
	}
	switch {
	case a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm:
		return *a.DistanceKm < *b.DistanceKm
	case a.DistanceKm != nil && b.DistanceKm == nil:
		return true
	case a.DistanceKm == nil && b.DistanceKm != nil:
		return false
	}
	return a.Listing.ExternalID < b.Listing.ExternalID
}

// Select filters, orders and caps listings in memory.
func (f MatchFilter) Select(listings []Listing) []Match {
	matches := make([]Match, 0)
	for _, l := range listings {
		if m, ok := f.Evaluate(l); ok {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return f.Less(matches[i], matches[j])
	})
	if f.Limit > 0 && len(matches) > f.Limit {
		matches = matches[:f.Limit]
	}
	return matches
}

func hlmRank(v *bool) int {
	switch {
	case v == nil:
		return 2
	case *v:
		return 0
	default:
		return 1
	}
}
