package usecase

import (
	"context"
	"fmt"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// Schedule holds the cron expressions of the three run triggers.
type Schedule struct {
	Ingest string
	Daily  string
	Weekly string
}

// Scheduler wires the cron-like driver with the run use cases.
type Scheduler struct {
	driver   ports.Scheduler
	runner   *Runner
	schedule Schedule
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, schedule Schedule) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, schedule: schedule}
}

// Start registers ingestion, daily and weekly dispatch with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	jobs := []struct {
		name string
		spec string
		job  func(context.Context)
	}{
		{"ingestion", s.schedule.Ingest, func(ctx context.Context) { s.runner.Ingest(ctx) }},
		{"dispatch-daily", s.schedule.Daily, func(ctx context.Context) { s.runner.Dispatch(ctx, domain.FrequencyDaily) }},
		{"dispatch-weekly", s.schedule.Weekly, func(ctx context.Context) { s.runner.Dispatch(ctx, domain.FrequencyWeekly) }},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if err := s.driver.Register(j.name, j.spec, j.job); err != nil {
			return fmt.Errorf("register %s: %w", j.name, err)
		}
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
