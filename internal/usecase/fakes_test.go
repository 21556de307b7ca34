package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func listing(id string, price int) domain.Listing {
	return domain.Listing{
		ExternalID: id,
		Source:     "homegate",
		Title:      "Appartement " + id,
		Address:    "Rue du Lac 5, 1260 Nyon",
		ListingURL: "https://www.homegate.ch/rent/" + id,
		Price:      price,
		IsActive:   true,
	}
}

func malformed(id string) domain.Listing {
	l := listing(id, 2000)
	nan := math.NaN()
	l.Rooms = &nan
	return l
}

type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return s.err
}

type fakeSource struct {
	mu      sync.Mutex
	results map[string][]domain.RawListing
	errs    map[string]error
	calls   []string
	onFetch func(target ports.SearchTarget)
}

func (f *fakeSource) Fetch(_ context.Context, target ports.SearchTarget) ([]domain.RawListing, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target.Location)
	f.mu.Unlock()
	if f.onFetch != nil {
		f.onFetch(target)
	}
	if err := f.errs[target.Location]; err != nil {
		return nil, err
	}
	return f.results[target.Location], nil
}

// failingStore wraps a ListingStore and fails chosen operations.
type failingStore struct {
	ports.ListingStore
	retireErr error
	upsertErr map[string]error
	queryErr  error
}

func (s *failingStore) MarkStaleInactive(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s.retireErr != nil {
		return 0, s.retireErr
	}
	return s.ListingStore.MarkStaleInactive(ctx, olderThan)
}

func (s *failingStore) Upsert(ctx context.Context, l domain.Listing) (domain.UpsertResult, error) {
	if err := s.upsertErr[l.ExternalID]; err != nil {
		return "", err
	}
	return s.ListingStore.Upsert(ctx, l)
}

func (s *failingStore) QueryActive(ctx context.Context, f domain.MatchFilter) ([]domain.Match, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.ListingStore.QueryActive(ctx, f)
}

var errUnavailable = fmt.Errorf("%w: connection refused", ports.ErrStoreUnavailable)

type sentMessage struct {
	to  string
	msg domain.Message
}

type fakeDeliverer struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func (d *fakeDeliverer) Send(_ context.Context, to string, msg domain.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[to] {
		return errors.New("provider rejected message")
	}
	d.sent = append(d.sent, sentMessage{to: to, msg: msg})
	return nil
}

type fakeGeocoder struct {
	points map[string]domain.GeoPoint
	calls  int
}

func (g *fakeGeocoder) Locate(_ context.Context, postalCode, city string) (domain.GeoPoint, error) {
	g.calls++
	p, ok := g.points[postalCode]
	if !ok {
		return domain.GeoPoint{}, errors.New("unknown place")
	}
	return p, nil
}
