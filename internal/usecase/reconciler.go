package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// ReconcileStats counts per-row upsert results.
type ReconcileStats struct {
	Created int
	Updated int
	Failed  int
}

// Reconciler is the only writer of listing rows.
type Reconciler struct {
	store  ports.ListingStore
	logger *slog.Logger
}

// NewReconciler wires the listing store.
func NewReconciler(store ports.ListingStore, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: log}
}

// Retire deactivates listings not observed within window.
func (r *Reconciler) Retire(ctx context.Context, window time.Duration) (int64, error) {
	retired, err := r.store.MarkStaleInactive(context.WithoutCancel(ctx), window)
	if err != nil {
		return 0, fmt.Errorf("retire stale listings: %w", err)
	}
	return retired, nil
}

// Apply upserts every listing. Row errors are counted and skipped; an unavailable store or a
// cancelled context stops the batch with the rows applied so far left in place.
func (r *Reconciler) Apply(ctx context.Context, listings []domain.Listing) (ReconcileStats, error) {
	var stats ReconcileStats
	for _, listing := range listings {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		result, err := r.store.Upsert(context.WithoutCancel(ctx), listing)
		if err != nil {
			if errors.Is(err, ports.ErrStoreUnavailable) {
				return stats, fmt.Errorf("upsert %s: %w", listing.ExternalID, err)
			}
			stats.Failed++
			r.warn("skip listing", "external_id", listing.ExternalID, "error", err)
			continue
		}

		switch result {
		case domain.UpsertCreated:
			stats.Created++
		default:
			stats.Updated++
		}
	}
	return stats, nil
}

func (r *Reconciler) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
