// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/clients/fmp"
	"github.com/quotedesk/quotedesk/internal/clients/mockdata"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/merge"
	"github.com/quotedesk/quotedesk/internal/scheduler"
	"github.com/quotedesk/quotedesk/internal/symbols"
	"github.com/quotedesk/quotedesk/internal/upstream"
)

// Container holds every long-lived service.
type Container struct {
	Calendar  *calendar.Calendar
	Caches    *cache.Registry
	Fetchers  upstream.Fetchers
	Resolver  *symbols.Resolver
	Engine    *merge.Engine
	Scheduler *scheduler.Scheduler

	// MockMode is set when no provider credentials are configured and all
	// data is synthetic.
	MockMode bool
}

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Trading calendar
// 2. Cache registry
// 3. Upstream fetchers (real provider, or mock data without credentials)
// 4. Symbol resolver and merge engine
// 5. Maintenance scheduler
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	cal := calendar.NewFromFile(cfg.CalendarFile, log)
	caches := cache.NewRegistry()

	fmpClient := fmp.NewClient(cfg.FMPBaseURL, cfg.FMPAPIKey, log)
	mockMode := !fmpClient.IsConfigured()

	var fetchers upstream.Fetchers
	var searcher upstream.SymbolSearcher
	if mockMode {
		log.Warn().Msg("No provider API key configured, serving mock data")
		mock := mockdata.NewProvider()
		fetchers = upstream.Fetchers{
			Quotes:        mock,
			Dividends:     mock,
			ExtendedHours: mock,
			News:          mock,
		}
	} else {
		fetchers = upstream.Fetchers{
			Quotes:        fmpClient,
			Dividends:     fmpClient,
			ExtendedHours: fmpClient,
			News:          fmpClient,
			Search:        fmpClient,
		}
		searcher = fmpClient
	}

	resolver := symbols.NewResolver(searcher, caches.Resolver, log)
	engine := merge.NewEngine(cal, caches, fetchers, mockMode, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(scheduler.CacheCleanupSchedule, scheduler.NewCacheCleanupJob(caches, log)); err != nil {
		return nil, fmt.Errorf("register cache cleanup job: %w", err)
	}
	if err := sched.AddJob(scheduler.CacheStatsSchedule, scheduler.NewCacheStatsJob(caches, log)); err != nil {
		return nil, fmt.Errorf("register cache stats job: %w", err)
	}

	log.Info().Bool("mock_mode", mockMode).Msg("Dependency injection wiring completed successfully")

	return &Container{
		Calendar:  cal,
		Caches:    caches,
		Fetchers:  fetchers,
		Resolver:  resolver,
		Engine:    engine,
		Scheduler: sched,
		MockMode:  mockMode,
	}, nil
}
