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

var errIncompleteDelivery = errors.New("one or more notifications were not delivered")

// DispatchDeps wires the driven adapters of a dispatch run.
type DispatchDeps struct {
	Alerts    ports.AlertRepository
	Searches  ports.SearchRepository
	Store     ports.ListingStore
	Deliverer ports.Deliverer
	Renderer  *DigestRenderer
	Guard     *RunGuard
	Sleeper   Sleeper
	Logger    *slog.Logger
	Clock     func() time.Time
}

// DispatchPolicy holds the tunables of a dispatch run.
type DispatchPolicy struct {
	InterUserDelay time.Duration
	MaxResults     int
}

// Dispatcher notifies users about listings matching their saved searches.
type Dispatcher struct {
	alerts    ports.AlertRepository
	searches  ports.SearchRepository
	matcher   *Matcher
	deliverer ports.Deliverer
	renderer  *DigestRenderer
	guard     *RunGuard
	sleeper   Sleeper
	logger    *slog.Logger
	clock     func() time.Time
	policy    DispatchPolicy
}

// NewDispatcher constructs the dispatch use case.
func NewDispatcher(deps DispatchDeps, policy DispatchPolicy) *Dispatcher {
	if deps.Guard == nil {
		deps.Guard = NewRunGuard()
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Renderer == nil {
		deps.Renderer = NewDigestRenderer()
	}
	if policy.MaxResults <= 0 {
		policy.MaxResults = 5
	}

	return &Dispatcher{
		alerts:    deps.Alerts,
		searches:  deps.Searches,
		matcher:   NewMatcher(deps.Store),
		deliverer: deps.Deliverer,
		renderer:  deps.Renderer,
		guard:     deps.Guard,
		sleeper:   deps.Sleeper,
		logger:    deps.Logger,
		clock:     deps.Clock,
		policy:    policy,
	}
}

// Run notifies every active user of frequency, one user at a time with a delay in between.
// A user whose deliveries fail is logged and skipped; lastSentAt only moves for users
// whose notifications were all delivered.
func (d *Dispatcher) Run(ctx context.Context, frequency domain.Frequency) domain.RunOutcome {
	kind := domain.DispatchKind(frequency)
	outcome := newOutcome(kind, d.clock())

	release, err := d.guard.Acquire(kind)
	if err != nil {
		return finish(outcome, domain.RunSkipped, err, d.clock())
	}
	defer release()

	if d.deliverer == nil {
		return finish(outcome, domain.RunFailed, ports.ErrNoDeliverer, d.clock())
	}

	outcome.Phase = PhaseLoadingUsers
	alerts, err := d.alerts.ActiveAlerts(ctx, frequency)
	if err != nil {
		return finish(outcome, domain.RunFailed, fmt.Errorf("load %s alerts: %w", frequency, err), d.clock())
	}

	for idx, alert := range alerts {
		if idx > 0 {
			outcome.Phase = PhaseDelay
			if err := d.sleeper.Sleep(ctx, d.policy.InterUserDelay); err != nil {
				return finish(outcome, domain.RunFailed, err, d.clock())
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(outcome, domain.RunFailed, err, d.clock())
		}

		outcome.Phase = PhaseDispatching
		outcome.Counts.Users++
		if err := d.dispatchUser(ctx, alert, &outcome.Counts); err != nil {
			if errors.Is(err, ports.ErrStoreUnavailable) {
				return finish(outcome, domain.RunFailed, err, d.clock())
			}
			outcome.Counts.UsersFailed++
			d.warn("alerts not completed for user", "user_id", alert.UserID, "error", err)
		}
	}

	return finish(outcome, domain.RunCompleted, nil, d.clock())
}

func (d *Dispatcher) dispatchUser(ctx context.Context, alert domain.AlertSetting, counts *domain.RunCounts) error {
	searches, err := d.searches.ActiveSearches(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("load searches: %w", err)
	}

	incomplete := false
	for _, search := range searches {
		counts.Searches++

		matches, err := d.matcher.ForSearch(ctx, search, d.policy.MaxResults)
		if errors.Is(err, domain.ErrRadiusWithoutAnchor) {
			d.warn("skip search without anchor", "user_id", alert.UserID, "search_id", search.ID)
			continue
		}
		if errors.Is(err, ports.ErrStoreUnavailable) {
			return err
		}
		if err != nil {
			incomplete = true
			d.warn("match failed", "user_id", alert.UserID, "search_id", search.ID, "error", err)
			continue
		}
		if len(matches) == 0 {
			continue
		}

		msg, err := d.renderer.Render(search, matches)
		if err != nil {
			incomplete = true
			d.warn("render failed", "search_id", search.ID, "error", err)
			continue
		}

		if err := d.deliverer.Send(context.WithoutCancel(ctx), alert.Email, msg); err != nil {
			counts.SendFailed++
			incomplete = true
			d.warn("send failed", "user_id", alert.UserID, "search_id", search.ID, "error", err)
			continue
		}
		counts.Sent++
		d.info("alert sent", "user_id", alert.UserID, "search", search.Name, "matches", len(matches))
	}

	if incomplete {
		return errIncompleteDelivery
	}

	if err := d.alerts.MarkSent(context.WithoutCancel(ctx), alert.UserID, d.clock()); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (d *Dispatcher) info(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Dispatcher) warn(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
