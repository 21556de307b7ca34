package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
	"HousingAlerts/internal/scanner"
)

// StrategySource implements ListingSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.ListingSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Fetch resolves the target's source adapter and runs one scan.
func (s *StrategySource) Fetch(ctx context.Context, target ports.SearchTarget) ([]domain.RawListing, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(target.Source)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Location, err)
	}

	s.debug("scan target", "source", target.Source, "location", target.Location)
	results, err := strategy.Scan(ctx, scanner.Request{
		Location: target.Location,
		RadiusKm: target.RadiusKm,
		MaxPrice: target.MaxPrice,
		MinRooms: target.MinRooms,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", target.Source, target.Location, err)
	}

	fetchedAt := time.Now().UTC()
	for i := range results {
		if results[i].FetchedAt.IsZero() {
			results[i].FetchedAt = fetchedAt
		}
	}
	s.debug("target produced listings", "source", target.Source, "location", target.Location, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
