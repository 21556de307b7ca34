package domain

import (
	"errors"
	"testing"
)

func active(id string, price int) Listing {
	return Listing{ExternalID: id, Source: "homegate", Price: price, IsActive: true}
}

func ptr[T any](v T) *T { return &v }

func TestFilterForRejectsRadiusWithoutAnchor(t *testing.T) {
	t.Parallel()

	_, err := FilterFor(SavedSearch{RadiusKm: ptr(10.0)}, 5)
	if !errors.Is(err, ErrRadiusWithoutAnchor) {
		t.Fatalf("expected ErrRadiusWithoutAnchor, got %v", err)
	}

	f, err := FilterFor(SavedSearch{RadiusKm: ptr(0.0)}, 5)
	if err != nil || f.RadiusKm != nil {
		t.Fatalf("zero radius should mean unbounded: %+v %v", f, err)
	}
	if f.Condition != ConditionAny || f.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", f)
	}

	if _, err := FilterFor(SavedSearch{Condition: "ancient"}, 5); err == nil {
		t.Fatalf("unknown condition should be rejected")
	}
}

func TestEvaluateConjunction(t *testing.T) {
	t.Parallel()

	f := MatchFilter{MaxPrice: ptr(3000), MinRooms: ptr(4.0), Condition: ConditionAny}

	fits := active("a", 2800)
	fits.Rooms = ptr(4.5)
	if _, ok := f.Evaluate(fits); !ok {
		t.Fatalf("listing within every bound should match")
	}

	expensive := fits
	expensive.Price = 3500
	if _, ok := f.Evaluate(expensive); ok {
		t.Fatalf("price above max must not match")
	}

	unknownRooms := active("b", 2000)
	if _, ok := f.Evaluate(unknownRooms); ok {
		t.Fatalf("unknown rooms cannot satisfy a minimum")
	}

	inactive := fits
	inactive.IsActive = false
	if _, ok := f.Evaluate(inactive); ok {
		t.Fatalf("inactive listings never match")
	}
}

func TestEvaluateConditionAndTransport(t *testing.T) {
	t.Parallel()

	renovated := active("r", 2000)
	renovated.IsRenovated = true
	renovated.NearBus = true

	cases := []struct {
		name   string
		filter MatchFilter
		want   bool
	}{
		{"new", MatchFilter{Condition: ConditionNew}, false},
		{"renovated", MatchFilter{Condition: ConditionRenovated}, true},
		{"either", MatchFilter{Condition: ConditionNewOrRenovated}, true},
		{"bus", MatchFilter{NearBus: true}, true},
		{"train", MatchFilter{NearTrain: true}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := tc.filter.Evaluate(renovated); ok != tc.want {
				t.Fatalf("Evaluate = %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestEvaluateRadius(t *testing.T) {
	t.Parallel()

	nyon := GeoPoint{Lat: 46.3833, Lng: 6.2398}
	f := MatchFilter{Anchor: &nyon, RadiusKm: ptr(10.0)}

	gland := active("gland", 2000)
	gland.Latitude, gland.Longitude = ptr(46.4208), ptr(6.2700)
	m, ok := f.Evaluate(gland)
	if !ok || m.DistanceKm == nil || *m.DistanceKm > 10 {
		t.Fatalf("nearby listing should match with distance, got %+v %v", m, ok)
	}

	lausanne := active("lausanne", 2000)
	lausanne.Latitude, lausanne.Longitude = ptr(46.5197), ptr(6.6323)
	if _, ok := f.Evaluate(lausanne); ok {
		t.Fatalf("listing outside radius must not match")
	}

	if _, ok := f.Evaluate(active("nowhere", 2000)); ok {
		t.Fatalf("listing without coordinates cannot satisfy a radius")
	}
}

func TestSelectOrdersHLMFirstThenPrice(t *testing.T) {
	t.Parallel()

	hlm := active("hlm", 3200)
	hlm.IsHLM = ptr(true)
	notHLM := active("private", 2800)
	notHLM.IsHLM = ptr(false)
	unknown := active("unknown", 2000)

	listings := []Listing{unknown, notHLM, hlm}

	prioritized := MatchFilter{PriorityHLM: true}.Select(listings)
	if ids := matchIDs(prioritized); ids != "hlm,private,unknown" {
		t.Fatalf("unexpected prioritized order %s", ids)
	}

	byPrice := MatchFilter{Limit: 2}.Select(listings)
	if ids := matchIDs(byPrice); ids != "unknown,private" {
		t.Fatalf("unexpected price order %s", ids)
	}
}

func TestSelectBreaksPriceTiesByDistance(t *testing.T) {
	t.Parallel()

	anchor := GeoPoint{Lat: 46.3833, Lng: 6.2398}
	far := active("far", 2000)
	far.Latitude, far.Longitude = ptr(46.45), ptr(6.30)
	near := active("near", 2000)
	near.Latitude, near.Longitude = ptr(46.39), ptr(6.24)
	none := active("a-none", 2000)

	got := MatchFilter{Anchor: &anchor}.Select([]Listing{none, far, near})
	if ids := matchIDs(got); ids != "near,far,a-none" {
		t.Fatalf("unexpected order %s", ids)
	}
}

func matchIDs(ms []Match) string {
	out := ""
	for i, m := range ms {
		if i > 0 {
			out += ","
		}
		out += m.Listing.ExternalID
	}
	return out
}
