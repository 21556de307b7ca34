package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"HousingAlerts/internal/app"
	"HousingAlerts/internal/config"
	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/logging"
)

const usage = "usage: housingalerts [serve | ingest | dispatch daily|weekly]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	args := os.Args[1:]
	mode := "serve"
	if len(args) > 0 {
		mode = args[0]
	}

	switch mode {
	case "serve":
		err = application.Serve(ctx)
	case "ingest":
		err = application.Ingest(ctx)
	case "dispatch":
		if len(args) < 2 {
			err = errors.New(usage)
			break
		}
		var frequency domain.Frequency
		if frequency, err = domain.ParseFrequency(args[1]); err == nil {
			err = application.Dispatch(ctx, frequency)
		}
	default:
		err = fmt.Errorf("unknown mode %q; %s", mode, usage)
	}

	if err != nil {
		logger.Error("application stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
}
