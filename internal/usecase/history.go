package usecase

import (
	"sync"

	"HousingAlerts/internal/domain"
)

// RunHistory keeps the most recent run outcomes in memory.
type RunHistory struct {
	mu    sync.Mutex
	limit int
	items []domain.RunOutcome
}

// NewRunHistory keeps at most limit outcomes (50 when limit <= 0).
func NewRunHistory(limit int) *RunHistory {
	if limit <= 0 {
		limit = 50
	}
	return &RunHistory{limit: limit}
}

// Record appends an outcome, evicting the oldest past the limit.
func (h *RunHistory) Record(o domain.RunOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, o)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append(h.items[:0:0], h.items[over:]...)
	}
}

// Recent returns up to n outcomes, newest first. n <= 0 returns all.
func (h *RunHistory) Recent(n int) []domain.RunOutcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.items) {
		n = len(h.items)
	}
	out := make([]domain.RunOutcome, 0, n)
	for i := len(h.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.items[i])
	}
	return out
}
