// Package main is the entry point for the QuoteDesk market data service.
// It keeps a near-real-time merged view of a watchlist: quotes, dividends,
// extended-hours prices and news presence, fetched on a cadence driven by
// the trading calendar and served over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/di"
	"github.com/quotedesk/quotedesk/internal/merge"
	"github.com/quotedesk/quotedesk/internal/server"
	"github.com/quotedesk/quotedesk/pkg/logger"
)

// shutdownTimeout bounds the graceful HTTP drain on exit.
const shutdownTimeout = 10 * time.Second

// main orchestrates the startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize structured logging
// 3. Wire dependencies (calendar, caches, fetchers, engine, scheduler)
// 4. Subscribe the configured watchlist
// 5. Start the HTTP server and maintenance scheduler
// 6. Wait for a shutdown signal and stop everything gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting QuoteDesk")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	sub := container.Engine.Subscribe(cfg.Watchlist, merge.Options{
		IncludeExtendedHours: cfg.IncludeExtendedHours,
		AssetClass:           calendar.AssetClassEquity,
	})
	log.Info().
		Strs("symbols", sub.Symbols()).
		Bool("extended_hours", cfg.IncludeExtendedHours).
		Msg("Watchlist subscribed")

	// Drain updates so the publish channel never backs up; the server reads
	// the latest snapshot directly from the subscription.
	go func() {
		for snapshot := range sub.Updates() {
			log.Debug().
				Uint64("tick", snapshot.TickCount).
				Int("records", len(snapshot.Records)).
				Str("phase", string(snapshot.Phase)).
				Msg("Snapshot updated")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Calendar: container.Calendar,
		Caches:   container.Caches,
		Resolver: container.Resolver,
		Source:   sub,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	sub.Stop()
	container.Scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("QuoteDesk stopped")
}
