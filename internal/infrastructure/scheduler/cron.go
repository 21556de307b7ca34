package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"HousingAlerts/internal/ports"
)

// CronScheduler triggers named jobs from cron expressions in a fixed timezone.
// A trigger that fires while the previous run of the same job is still going is skipped.
type CronScheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
	started bool
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in loc (UTC when nil).
func NewCronScheduler(loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	adapter := cronLogger{log: log}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		logger:  log,
		ctx:     context.Background(),
		entries: map[string]cron.EntryID{},
	}
}

// Register adds a job under name. The job receives the context passed to Start.
func (c *CronScheduler) Register(name, spec string, job func(ctx context.Context)) error {
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := c.cron.AddFunc(spec, func() {
		c.logger.Info("trigger fired", "job", name)
		job(c.runContext())
	})
	if err != nil {
		return fmt.Errorf("parse cron %q for %s: %w", spec, name, err)
	}
	c.entries[name] = id
	return nil
}

// Start begins evaluating schedules in the background.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.ctx = ctx
	c.started = true
	c.cron.Start()

	for name, id := range c.entries {
		c.logger.Info("job scheduled", "job", name, "next", c.cron.Entry(id).Next)
	}
	return nil
}

// Stop halts new triggers and waits for running jobs or ctx, whichever ends first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.mu.Unlock()

	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next activation of a registered job.
func (c *CronScheduler) Next(name string) (time.Time, bool) {
	c.mu.Lock()
	id, ok := c.entries[name]
	c.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return c.cron.Entry(id).Next, true
}

func (c *CronScheduler) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
