package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RawListing is one unnormalized record as extracted by a source adapter.
type RawListing struct {
	// NativeID is the source's own identifier when the adapter can read one.
	NativeID  string
	Title     string
	PriceText string
	Address   string
	URL       string
	// Details holds free-form characteristic texts ("4.5 rooms", "110 m²").
	Details   []string
	FetchedAt time.Time
}

// Listing is the canonical housing offer persisted by the listing store.
type Listing struct {
	ExternalID  string
	Source      string
	Title       string
	Address     string
	ListingURL  string
	Price       int
	Rooms       *float64
	Area        *int
	PostalCode  *string
	City        *string
	Latitude    *float64
	Longitude   *float64
	IsNew       bool
	IsRenovated bool
	IsHLM       *bool
	NearBus     bool
	NearTrain   bool
	IsActive    bool
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// Coordinates returns the listing position when both components are known.
func (l Listing) Coordinates() (GeoPoint, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *l.Latitude, Lng: *l.Longitude}, true
}

// ErrInvalidListing marks a listing the store refuses to persist.
var ErrInvalidListing = errors.New("invalid listing")

// Validate checks the fields a store relies on before writing a row.
func (l Listing) Validate() error {
	switch {
	case l.ExternalID == "":
		return fmt.Errorf("%w: empty external id", ErrInvalidListing)
	case l.Price <= 0:
		return fmt.Errorf("%w: price %d", ErrInvalidListing, l.Price)
	case l.Rooms != nil && (math.IsNaN(*l.Rooms) || math.IsInf(*l.Rooms, 0) || *l.Rooms < 0):
		return fmt.Errorf("%w: rooms %v", ErrInvalidListing, *l.Rooms)
	case l.Area != nil && *l.Area < 0:
		return fmt.Errorf("%w: area %d", ErrInvalidListing, *l.Area)
	}
	return nil
}

// UpsertResult reports what an upsert did to the stored row.
type UpsertResult string

const (
	UpsertCreated UpsertResult = "created"
	UpsertUpdated UpsertResult = "updated"
)
