package domain

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	nyon := GeoPoint{Lat: 46.3833, Lng: 6.2398}
	geneva := GeoPoint{Lat: 46.2044, Lng: 6.1432}

	if d := DistanceKm(nyon, nyon); d != 0 {
		t.Fatalf("distance to self = %v", d)
	}
	d := DistanceKm(nyon, geneva)
	if math.Abs(d-21.2) > 1 {
		t.Fatalf("Nyon-Geneva distance = %.2f km, want about 21 km", d)
	}
	if back := DistanceKm(geneva, nyon); math.Abs(back-d) > 1e-9 {
		t.Fatalf("distance must be symmetric: %v vs %v", d, back)
	}
}

func TestListingValidate(t *testing.T) {
	t.Parallel()

	ok := Listing{ExternalID: "homegate_1", Price: 2000}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid listing rejected: %v", err)
	}

	bad := []Listing{
		{Price: 2000},
		{ExternalID: "x", Price: 0},
		{ExternalID: "x", Price: 10, Rooms: ptr(math.NaN())},
		{ExternalID: "x", Price: 10, Area: ptr(-1)},
	}
	for _, l := range bad {
		if err := l.Validate(); err == nil {
			t.Fatalf("expected %+v to be rejected", l)
		}
	}
}
