package usecase

import (
	"sync"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// RunGuard keeps two runs of the same kind from overlapping.
type RunGuard struct {
	mu      sync.Mutex
	running map[domain.RunKind]bool
}

// NewRunGuard builds an empty guard.
func NewRunGuard() *RunGuard {
	return &RunGuard{running: map[domain.RunKind]bool{}}
}

// Acquire claims kind or fails with ErrRunInProgress. The returned release is idempotent.
func (g *RunGuard) Acquire(kind domain.RunKind) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running[kind] {
		return nil, ports.ErrRunInProgress
	}
	g.running[kind] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, kind)
			g.mu.Unlock()
		})
	}, nil
}
