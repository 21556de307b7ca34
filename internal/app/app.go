package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"HousingAlerts/internal/config"
	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/infrastructure/email"
	"HousingAlerts/internal/infrastructure/geocode"
	"HousingAlerts/internal/infrastructure/httpapi"
	"HousingAlerts/internal/infrastructure/parser"
	"HousingAlerts/internal/infrastructure/scheduler"
	"HousingAlerts/internal/infrastructure/storage"
	"HousingAlerts/internal/infrastructure/telegram"
	"HousingAlerts/internal/logging"
	"HousingAlerts/internal/ports"
	"HousingAlerts/internal/scanner"
	"HousingAlerts/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	runner    *usecase.Runner
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New builds the application: storage, source adapters, delivery, run use cases and triggers.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	listings, searches, alerts, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHomegateScanner(
		newPageLoader(cfg.Sources.Homegate),
		cfg.Sources.Homegate.BaseURL,
		baseLogger.With("component", "scanner.homegate"),
	))
	source := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	var geocoder ports.Geocoder
	if cfg.Geocoder.URL != "" {
		geocoder = geocode.NewClient(cfg.Geocoder.URL, cfg.Geocoder.Email, cfg.Geocoder.Interval.Duration)
	}

	guard := usecase.NewRunGuard()
	ingestion := usecase.NewIngestion(usecase.IngestionDeps{
		Source:   source,
		Store:    listings,
		Geocoder: geocoder,
		Guard:    guard,
		Logger:   baseLogger.With("component", "ingestion"),
	}, usecase.IngestionPolicy{
		Targets:           targets(cfg.Ingestion.Targets),
		FreshnessWindow:   cfg.Ingestion.FreshnessWindow.Duration,
		InterRequestDelay: cfg.Ingestion.InterRequestDelay.Duration,
		AllowSyntheticIDs: cfg.Ingestion.SyntheticIDsAllowed(),
	})

	dispatcher := usecase.NewDispatcher(usecase.DispatchDeps{
		Alerts:    alerts,
		Searches:  searches,
		Store:     listings,
		Deliverer: newDeliverer(cfg.Delivery, baseLogger),
		Guard:     guard,
		Logger:    baseLogger.With("component", "dispatcher"),
	}, usecase.DispatchPolicy{
		InterUserDelay: cfg.Dispatch.InterUserDelay.Duration,
		MaxResults:     cfg.Dispatch.MaxResults,
	})

	a.runner = usecase.NewRunner(ingestion, dispatcher, usecase.NewRunHistory(0), baseLogger.With("component", "runner"))

	cron := scheduler.NewCronScheduler(cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
	a.scheduler = usecase.NewScheduler(cron, a.runner, usecase.Schedule{
		Ingest: cfg.Scheduler.IngestCron,
		Daily:  cfg.Scheduler.DailyCron,
		Weekly: cfg.Scheduler.WeeklyCron,
	})

	gin.SetMode(gin.ReleaseMode)
	a.server = httpapi.NewServer(httpapi.Deps{
		Runs:          a.runner,
		Searches:      searches,
		Matcher:       usecase.NewMatcher(listings),
		AllowedOrigin: cfg.HTTP.AllowedOrigin,
		PreviewLimit:  cfg.Dispatch.MaxResults,
		Logger:        baseLogger.With("component", "http"),
	})

	return a, nil
}

func (a *Application) openStorage(ctx context.Context) (ports.ListingStore, ports.SearchRepository, ports.AlertRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("database dsn not set, using in-memory storage")
		accounts := storage.NewMemoryAccounts()
		return storage.NewMemoryListingStore(nil), accounts, accounts, nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	a.db = db

	accounts := storage.NewPostgresAccountRepository(db)
	return storage.NewPostgresListingStore(db), accounts, accounts, nil
}

func newPageLoader(cfg config.HomegateConfig) parser.PageLoader {
	if cfg.Renderer == "chrome" {
		return parser.NewChromeLoader(cfg.ChromePath, parser.ResultListSelector, cfg.Timeout.Duration)
	}
	return parser.NewHTTPLoader(&http.Client{Timeout: cfg.Timeout.Duration})
}

func newDeliverer(cfg config.DeliveryConfig, log *slog.Logger) ports.Deliverer {
	switch cfg.Provider {
	case "telegram":
		if cfg.Telegram.BotToken != "" {
			return telegram.NewNotifier(cfg.Telegram.BotToken)
		}
	case "resend", "":
		if cfg.Resend.APIKey != "" {
			return email.NewResendClient(cfg.Resend)
		}
	default:
		log.Warn("unknown delivery provider", "provider", cfg.Provider)
		return nil
	}
	log.Warn("delivery provider not configured, dispatch runs will fail", "provider", cfg.Provider)
	return nil
}

func targets(in []config.TargetConfig) []ports.SearchTarget {
	out := make([]ports.SearchTarget, 0, len(in))
	for _, t := range in {
		out = append(out, ports.SearchTarget{
			Source:   t.Source,
			Location: t.Location,
			RadiusKm: t.RadiusKm,
			MaxPrice: t.MaxPrice,
			MinRooms: t.MinRooms,
		})
	}
	return out
}

// Serve starts the cron triggers and the HTTP surface until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"timezone", a.cfg.Scheduler.Location().String(),
		"ingest", a.cfg.Scheduler.IngestCron,
		"daily", a.cfg.Scheduler.DailyCron,
		"weekly", a.cfg.Scheduler.WeeklyCron,
	)

	serveErr := a.server.Run(ctx, a.cfg.HTTP.Addr)

	stopCtx := context.WithoutCancel(ctx)
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	return serveErr
}

// Ingest performs one ingestion run and reports a failure as an error.
func (a *Application) Ingest(ctx context.Context) error {
	return outcomeErr(a.runner.Ingest(ctx))
}

// Dispatch performs one dispatch run for frequency and reports a failure as an error.
func (a *Application) Dispatch(ctx context.Context, frequency domain.Frequency) error {
	return outcomeErr(a.runner.Dispatch(ctx, frequency))
}

// Close releases the database pool.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func outcomeErr(o domain.RunOutcome) error {
	switch o.Status {
	case domain.RunFailed:
		if o.Err == nil {
			return errors.New("run failed")
		}
		return fmt.Errorf("%s run failed in %s: %w", o.Kind, o.Phase, o.Err)
	case domain.RunSkipped:
		return fmt.Errorf("%s run skipped: %w", o.Kind, o.Err)
	}
	return nil
}
