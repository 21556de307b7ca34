package usecase

import (
	"context"
	"fmt"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// Matcher runs saved searches against the listing store.
type Matcher struct {
	store ports.ListingStore
}

// NewMatcher wires the listing store.
func NewMatcher(store ports.ListingStore) *Matcher {
	return &Matcher{store: store}
}

// ForSearch returns up to limit active listings satisfying s, in match order.
func (m *Matcher) ForSearch(ctx context.Context, s domain.SavedSearch, limit int) ([]domain.Match, error) {
	filter, err := domain.FilterFor(s, limit)
	if err != nil {
		return nil, fmt.Errorf("search %d: %w", s.ID, err)
	}

	matches, err := m.store.QueryActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query matches for search %d: %w", s.ID, err)
	}
	return matches, nil
}
