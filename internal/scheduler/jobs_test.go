package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/cache"
)

func TestCacheCleanupJobSweepsExpiredEntries(t *testing.T) {
	registry := cache.NewRegistry()
	registry.Quotes.Set("AAPL", 1.0, -time.Second)
	registry.Quotes.Set("MSFT", 2.0, time.Minute)
	registry.News.Set("AAPL", 3.0, -time.Second)

	job := NewCacheCleanupJob(registry, zerolog.Nop())
	require.NoError(t, job.Run())

	assert.Equal(t, 1, registry.Quotes.Size())
	assert.Equal(t, 0, registry.News.Size())

	_, ok := registry.Quotes.Get("MSFT")
	assert.True(t, ok, "live entries survive the sweep")
}

func TestCacheCleanupJobOnEmptyRegistry(t *testing.T) {
	job := NewCacheCleanupJob(cache.NewRegistry(), zerolog.Nop())

	assert.NoError(t, job.Run())
}

func TestCacheStatsJobRuns(t *testing.T) {
	registry := cache.NewRegistry()
	registry.Quotes.Set("AAPL", 1.0, time.Minute)
	registry.Quotes.Get("AAPL")

	job := NewCacheStatsJob(registry, zerolog.Nop())
	assert.NoError(t, job.Run())
}

func TestSchedulerRegistersAndRunsJobs(t *testing.T) {
	sched := New(zerolog.Nop())
	registry := cache.NewRegistry()

	require.NoError(t, sched.AddJob(CacheCleanupSchedule, NewCacheCleanupJob(registry, zerolog.Nop())))
	require.NoError(t, sched.AddJob(CacheStatsSchedule, NewCacheStatsJob(registry, zerolog.Nop())))

	assert.Error(t, sched.AddJob("not a schedule", NewCacheStatsJob(registry, zerolog.Nop())))

	require.NoError(t, sched.RunNow(NewCacheCleanupJob(registry, zerolog.Nop())))

	sched.Start()
	sched.Stop()
}
