package ports

import (
	"context"
	"errors"
	"time"

	"HousingAlerts/internal/domain"
)

var (
	// ErrStoreUnavailable classifies storage failures that abort the current run.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRunInProgress is returned when a run of the same kind already holds the guard.
	ErrRunInProgress = errors.New("run already in progress")
	// ErrNoDeliverer is returned by dispatch runs when no delivery provider is configured.
	ErrNoDeliverer = errors.New("no delivery provider configured")
	// ErrNotFound is returned by repositories for unknown ids.
	ErrNotFound = errors.New("not found")
)

// SearchTarget carries the parameters of one Source Adapter invocation.
type SearchTarget struct {
	Source   string
	Location string
	RadiusKm float64
	MaxPrice int
	MinRooms float64
}

// ListingSource pulls raw listings from the adapter registered for target.Source.
type ListingSource interface {
	Fetch(ctx context.Context, target SearchTarget) ([]domain.RawListing, error)
}

// ListingStore owns listing rows. The reconciler is its only writer.
type ListingStore interface {
	Upsert(ctx context.Context, listing domain.Listing) (domain.UpsertResult, error)
	MarkStaleInactive(ctx context.Context, olderThan time.Duration) (int64, error)
	QueryActive(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, error)
}

// SearchRepository reads saved searches owned by the CRUD layer.
type SearchRepository interface {
	ActiveSearches(ctx context.Context, userID string) ([]domain.SavedSearch, error)
	SearchByID(ctx context.Context, id int64) (domain.SavedSearch, error)
}

// AlertRepository reads alert settings and records deliveries.
type AlertRepository interface {
	ActiveAlerts(ctx context.Context, frequency domain.Frequency) ([]domain.AlertSetting, error)
	MarkSent(ctx context.Context, userID string, at time.Time) error
}

// Deliverer sends a rendered notification to one destination.
type Deliverer interface {
	Send(ctx context.Context, destination string, msg domain.Message) error
}

// Geocoder resolves a postal code and city to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, postalCode, city string) (domain.GeoPoint, error)
}

// Scheduler controls when named jobs execute.
type Scheduler interface {
	Register(name, spec string, job func(ctx context.Context)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
