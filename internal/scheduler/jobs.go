package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/quotedesk/quotedesk/internal/cache"
)

// Default schedules for the maintenance jobs.
const (
	CacheCleanupSchedule = "0 * * * * *" // every minute
	CacheStatsSchedule   = "@hourly"
)

// CacheCleanupJob sweeps expired entries out of every cache namespace.
// Reads never remove expired entries, so without this sweep a namespace
// would slowly fill with dead data between evictions.
type CacheCleanupJob struct {
	caches *cache.Registry
	log    zerolog.Logger
}

// NewCacheCleanupJob creates the cleanup job.
func NewCacheCleanupJob(caches *cache.Registry, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		caches: caches,
		log:    log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name.
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run sweeps every namespace once.
func (j *CacheCleanupJob) Run() error {
	total := 0
	for _, ns := range j.caches.All() {
		removed := ns.Cleanup()
		if removed > 0 {
			j.log.Debug().
				Str("namespace", ns.Name()).
				Int("removed", removed).
				Msg("Swept expired cache entries")
		}
		total += removed
	}
	if total > 0 {
		j.log.Info().Int("removed", total).Msg("Cache cleanup complete")
	}
	return nil
}

// CacheStatsJob logs hit/miss counters for every namespace.
type CacheStatsJob struct {
	caches *cache.Registry
	log    zerolog.Logger
}

// NewCacheStatsJob creates the stats job.
func NewCacheStatsJob(caches *cache.Registry, log zerolog.Logger) *CacheStatsJob {
	return &CacheStatsJob{
		caches: caches,
		log:    log.With().Str("job", "cache_stats").Logger(),
	}
}

// Name returns the job name.
func (j *CacheStatsJob) Name() string {
	return "cache_stats"
}

// Run logs one line per namespace.
func (j *CacheStatsJob) Run() error {
	for _, stats := range j.caches.Stats() {
		j.log.Info().
			Str("namespace", stats.Namespace).
			Int("size", stats.Size).
			Int("capacity", stats.Capacity).
			Uint64("hits", stats.Hits).
			Uint64("misses", stats.Misses).
			Uint64("stale_hits", stats.StaleHits).
			Uint64("evictions", stats.Evictions).
			Msg("Cache stats")
	}
	return nil
}
