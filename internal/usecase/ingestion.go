package usecase

import (
	"context"
	"log/slog"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// IngestionDeps wires the driven adapters of an ingestion run.
type IngestionDeps struct {
	Source   ports.ListingSource
	Store    ports.ListingStore
	Geocoder ports.Geocoder
	Guard    *RunGuard
	Sleeper  Sleeper
	Logger   *slog.Logger
	Clock    func() time.Time
}

// IngestionPolicy holds the tunables of an ingestion run.
type IngestionPolicy struct {
	Targets           []ports.SearchTarget
	FreshnessWindow   time.Duration
	InterRequestDelay time.Duration
	AllowSyntheticIDs bool
}

// Ingestion drives retire → fetch (sequential, delayed) → deduplicate → geocode → reconcile.
type Ingestion struct {
	source     ports.ListingSource
	geocoder   ports.Geocoder
	reconciler *Reconciler
	normalizer *Normalizer
	guard      *RunGuard
	sleeper    Sleeper
	logger     *slog.Logger
	clock      func() time.Time
	policy     IngestionPolicy
}

// NewIngestion constructs the orchestrator.
func NewIngestion(deps IngestionDeps, policy IngestionPolicy) *Ingestion {
	if deps.Guard == nil {
		deps.Guard = NewRunGuard()
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if policy.FreshnessWindow <= 0 {
		policy.FreshnessWindow = 7 * 24 * time.Hour
	}

	normalizer := NewNormalizer(policy.AllowSyntheticIDs, deps.Logger)
	normalizer.now = deps.Clock

	return &Ingestion{
		source:     deps.Source,
		geocoder:   deps.Geocoder,
		reconciler: NewReconciler(deps.Store, deps.Logger),
		normalizer: normalizer,
		guard:      deps.Guard,
		sleeper:    deps.Sleeper,
		logger:     deps.Logger,
		clock:      deps.Clock,
		policy:     policy,
	}
}

// Run executes one ingestion cycle. A failed source degrades to an empty result; a store
// failure ends the run as failed with already-applied rows left in place.
func (i *Ingestion) Run(ctx context.Context) domain.RunOutcome {
	outcome := newOutcome(domain.RunIngestion, i.clock())

	release, err := i.guard.Acquire(domain.RunIngestion)
	if err != nil {
		return finish(outcome, domain.RunSkipped, err, i.clock())
	}
	defer release()

	outcome.Phase = PhaseRetiringStale
	retired, err := i.reconciler.Retire(ctx, i.policy.FreshnessWindow)
	if err != nil {
		return finish(outcome, domain.RunFailed, err, i.clock())
	}
	outcome.Counts.Retired = int(retired)

	var batch []domain.Listing
	ordinal := 0
	for idx, target := range i.policy.Targets {
		if idx > 0 {
			outcome.Phase = PhaseDelay
			if err := i.sleeper.Sleep(ctx, i.policy.InterRequestDelay); err != nil {
				return finish(outcome, domain.RunFailed, err, i.clock())
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(outcome, domain.RunFailed, err, i.clock())
		}

		outcome.Phase = PhaseFetchingSource
		raws := i.fetch(ctx, target, &outcome.Counts)

		listings, stats := i.normalizer.NormalizeBatch(target.Source, raws, ordinal)
		ordinal += len(raws)
		outcome.Counts.Rejected += stats.Rejected
		outcome.Counts.SyntheticIDs += stats.SyntheticIDs
		batch = append(batch, listings...)
	}

	outcome.Phase = PhaseDeduplicating
	unique := Deduplicate(batch)
	outcome.Counts.Unique = len(unique)

	if i.geocoder != nil {
		outcome.Phase = PhaseGeocoding
		outcome.Counts.Geocoded = i.geocode(ctx, unique)
	}

	outcome.Phase = PhaseReconciling
	stats, err := i.reconciler.Apply(ctx, unique)
	outcome.Counts.Created = stats.Created
	outcome.Counts.Updated = stats.Updated
	outcome.Counts.Failed = stats.Failed
	if err != nil {
		return finish(outcome, domain.RunFailed, err, i.clock())
	}

	return finish(outcome, domain.RunCompleted, nil, i.clock())
}

func (i *Ingestion) fetch(ctx context.Context, target ports.SearchTarget, counts *domain.RunCounts) []domain.RawListing {
	counts.SourcesRun++
	if i.source == nil {
		counts.SourcesFailed++
		return nil
	}

	raws, err := i.source.Fetch(ctx, target)
	if err != nil {
		counts.SourcesFailed++
		i.warn("source fetch failed, continuing", "source", target.Source, "location", target.Location, "error", err)
		return nil
	}
	counts.Fetched += len(raws)
	i.info("source fetched", "source", target.Source, "location", target.Location, "count", len(raws))
	return raws
}

// geocode fills missing coordinates in place; failures leave them nil.
func (i *Ingestion) geocode(ctx context.Context, listings []domain.Listing) int {
	located := 0
	for idx := range listings {
		if ctx.Err() != nil {
			break
		}
		l := &listings[idx]
		if l.Latitude != nil || l.PostalCode == nil || l.City == nil {
			continue
		}

		point, err := i.geocoder.Locate(ctx, *l.PostalCode, *l.City)
		if err != nil {
			i.debug("geocode failed", "external_id", l.ExternalID, "postal_code", *l.PostalCode, "error", err)
			continue
		}
		lat, lng := point.Lat, point.Lng
		l.Latitude, l.Longitude = &lat, &lng
		located++
	}
	return located
}

func (i *Ingestion) info(msg string, args ...interface{}) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingestion) warn(msg string, args ...interface{}) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}

func (i *Ingestion) debug(msg string, args ...interface{}) {
	if i.logger != nil {
		i.logger.Debug(msg, args...)
	}
}
