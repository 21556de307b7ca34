package scanner

import (
	"context"
	"fmt"

	"HousingAlerts/internal/domain"
)

// Request carries the search parameters of one adapter invocation.
type Request struct {
	Location string
	RadiusKm float64
	MaxPrice int
	MinRooms float64
}

// Scanner captures a single source adapter (Homegate, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.RawListing, error)
}

// Registry keeps a mapping from source names to their adapters.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
