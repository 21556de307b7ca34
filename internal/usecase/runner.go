package usecase

import (
	"context"
	"log/slog"

	"HousingAlerts/internal/domain"
)

// Runner executes runs on behalf of triggers (cron, HTTP, CLI) and surfaces their outcome.
type Runner struct {
	ingestion  *Ingestion
	dispatcher *Dispatcher
	history    *RunHistory
	logger     *slog.Logger
}

// NewRunner wires the run use cases with an outcome history.
func NewRunner(ingestion *Ingestion, dispatcher *Dispatcher, history *RunHistory, log *slog.Logger) *Runner {
	if history == nil {
		history = NewRunHistory(0)
	}
	return &Runner{
		ingestion:  ingestion,
		dispatcher: dispatcher,
		history:    history,
		logger:     log,
	}
}

// Ingest runs one ingestion cycle.
func (r *Runner) Ingest(ctx context.Context) domain.RunOutcome {
	return r.report(r.ingestion.Run(ctx))
}

// Dispatch runs one dispatch cycle for frequency.
func (r *Runner) Dispatch(ctx context.Context, frequency domain.Frequency) domain.RunOutcome {
	return r.report(r.dispatcher.Run(ctx, frequency))
}

// Recent returns up to n recorded outcomes, newest first.
func (r *Runner) Recent(n int) []domain.RunOutcome {
	return r.history.Recent(n)
}

func (r *Runner) report(o domain.RunOutcome) domain.RunOutcome {
	r.history.Record(o)
	if r.logger == nil {
		return o
	}

	attrs := []interface{}{
		"run_id", o.ID,
		"kind", o.Kind,
		"status", o.Status,
		"phase", o.Phase,
		"duration", o.Duration,
		"counts", o.Counts,
	}
	switch o.Status {
	case domain.RunFailed:
		r.logger.Error("run failed", append(attrs, "error", o.Err)...)
	case domain.RunSkipped:
		r.logger.Warn("run skipped", append(attrs, "error", o.Err)...)
	default:
		r.logger.Info("run completed", attrs...)
	}
	return o
}
