package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// MemoryListingStore keeps listings in process memory. It backs tests and DSN-less runs.
type MemoryListingStore struct {
	mu   sync.RWMutex
	rows map[string]domain.Listing
	now  func() time.Time
}

var _ ports.ListingStore = (*MemoryListingStore)(nil)

// NewMemoryListingStore builds an empty store; a nil clock uses time.Now.
func NewMemoryListingStore(clock func() time.Time) *MemoryListingStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryListingStore{rows: map[string]domain.Listing{}, now: clock}
}

// Upsert inserts or refreshes a listing keyed by external id.
func (s *MemoryListingStore) Upsert(_ context.Context, listing domain.Listing) (domain.UpsertResult, error) {
	if err := listing.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	existing, ok := s.rows[listing.ExternalID]
	if !ok {
		listing.IsActive = true
		listing.FirstSeenAt = now
		listing.LastSeenAt = now
		s.rows[listing.ExternalID] = listing
		return domain.UpsertCreated, nil
	}

	existing.Price = listing.Price
	existing.Title = listing.Title
	existing.Rooms = listing.Rooms
	existing.Area = listing.Area
	existing.LastSeenAt = now
	existing.IsActive = true
	if listing.Latitude != nil && listing.Longitude != nil {
		existing.Latitude = listing.Latitude
		existing.Longitude = listing.Longitude
	}
	s.rows[listing.ExternalID] = existing
	return domain.UpsertUpdated, nil
}

// MarkStaleInactive retires active listings last seen before now-olderThan.
func (s *MemoryListingStore) MarkStaleInactive(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-olderThan)
	var retired int64
	for id, l := range s.rows {
		if l.IsActive && l.LastSeenAt.Before(cutoff) {
			l.IsActive = false
			s.rows[id] = l
			retired++
		}
	}
	return retired, nil
}

// QueryActive evaluates filter against every stored listing.
func (s *MemoryListingStore) QueryActive(_ context.Context, filter domain.MatchFilter) ([]domain.Match, error) {
	return filter.Select(s.All()), nil
}

// Get returns one stored listing.
func (s *MemoryListingStore) Get(externalID string) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.rows[externalID]
	return l, ok
}

// Put stores a listing as-is, timestamps included.
func (s *MemoryListingStore) Put(listing domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[listing.ExternalID] = listing
}

// All returns every stored listing ordered by external id.
func (s *MemoryListingStore) All() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Listing, 0, len(s.rows))
	for _, l := range s.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}

// MemoryAccounts holds saved searches and alert settings in memory.
type MemoryAccounts struct {
	mu       sync.RWMutex
	searches []domain.SavedSearch
	alerts   []domain.AlertSetting
}

var (
	_ ports.SearchRepository = (*MemoryAccounts)(nil)
	_ ports.AlertRepository  = (*MemoryAccounts)(nil)
)

// NewMemoryAccounts builds an empty repository.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{}
}

// AddSearch stores a saved search; a zero id is assigned sequentially.
func (m *MemoryAccounts) AddSearch(s domain.SavedSearch) domain.SavedSearch {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == 0 {
		s.ID = int64(len(m.searches) + 1)
	}
	m.searches = append(m.searches, s)
	return s
}

// AddAlert stores or replaces a user's alert setting.
func (m *MemoryAccounts) AddAlert(a domain.AlertSetting) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].UserID == a.UserID {
			m.alerts[i] = a
			return
		}
	}
	m.alerts = append(m.alerts, a)
}

// Alert returns the alert setting of userID.
func (m *MemoryAccounts) Alert(userID string) (domain.AlertSetting, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.alerts {
		if a.UserID == userID {
			return a, true
		}
	}
	return domain.AlertSetting{}, false
}

// ActiveSearches returns the user's active searches in insertion order.
func (m *MemoryAccounts) ActiveSearches(_ context.Context, userID string) ([]domain.SavedSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.SavedSearch
	for _, s := range m.searches {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

// SearchByID returns one saved search or ErrNotFound.
func (m *MemoryAccounts) SearchByID(_ context.Context, id int64) (domain.SavedSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.searches {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.SavedSearch{}, ports.ErrNotFound
}

// ActiveAlerts returns active settings at frequency in insertion order.
func (m *MemoryAccounts) ActiveAlerts(_ context.Context, frequency domain.Frequency) ([]domain.AlertSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.AlertSetting
	for _, a := range m.alerts {
		if a.IsActive && a.Frequency == frequency {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkSent records a delivery time for userID.
func (m *MemoryAccounts) MarkSent(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].UserID == userID {
			sent := at
			m.alerts[i].LastSentAt = &sent
			return nil
		}
	}
	return ports.ErrNotFound
}
