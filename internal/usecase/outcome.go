package usecase

import (
	"time"

	"github.com/google/uuid"

	"HousingAlerts/internal/domain"
)

const (
	PhaseIdle           = "idle"
	PhaseRetiringStale  = "retiring_stale"
	PhaseFetchingSource = "fetching_source"
	PhaseDelay          = "delay"
	PhaseDeduplicating  = "deduplicating"
	PhaseGeocoding      = "geocoding"
	PhaseReconciling    = "reconciling"
	PhaseLoadingUsers   = "loading_users"
	PhaseDispatching    = "dispatching"
	PhaseDone           = "done"
)

func newOutcome(kind domain.RunKind, startedAt time.Time) domain.RunOutcome {
	return domain.RunOutcome{
		ID:        uuid.NewString(),
		Kind:      kind,
		Phase:     PhaseIdle,
		StartedAt: startedAt,
	}
}

func finish(o domain.RunOutcome, status domain.RunStatus, err error, now time.Time) domain.RunOutcome {
	o.Status = status
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
	if status == domain.RunCompleted {
		o.Phase = PhaseDone
	}
	o.Duration = now.Sub(o.StartedAt)
	return o
}
