package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quotedesk/quotedesk/internal/calendar"
)

func TestBackoffAllowsFirstAttempt(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()

	assert.True(t, bo.Allow("AAPL", calendar.CategoryQuotes, now))
}

func TestBackoffDoublesPerConsecutiveFailure(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()
	base := time.Minute

	bo.Fail("AAPL", calendar.CategoryQuotes, now, base)
	assert.False(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(59*time.Second)))
	assert.True(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(61*time.Second)))

	// Second consecutive failure: delay doubles to 2x base.
	bo.Fail("AAPL", calendar.CategoryQuotes, now, base)
	assert.False(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(90*time.Second)))
	assert.True(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(121*time.Second)))

	assert.Equal(t, 2, bo.Failures("AAPL", calendar.CategoryQuotes))
}

func TestBackoffCapsAtSixteenTimesBase(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()
	base := time.Minute

	for i := 0; i < 10; i++ {
		bo.Fail("AAPL", calendar.CategoryQuotes, now, base)
	}

	assert.False(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(15*time.Minute)))
	assert.True(t, bo.Allow("AAPL", calendar.CategoryQuotes, now.Add(17*time.Minute)))
}

func TestBackoffResetOnSuccess(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()

	bo.Fail("AAPL", calendar.CategoryQuotes, now, time.Minute)
	bo.Reset("AAPL", calendar.CategoryQuotes)

	assert.True(t, bo.Allow("AAPL", calendar.CategoryQuotes, now))
	assert.Equal(t, 0, bo.Failures("AAPL", calendar.CategoryQuotes))
}

func TestBackoffIsPerSymbolAndCategory(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()

	bo.Fail("AAPL", calendar.CategoryQuotes, now, time.Minute)

	assert.True(t, bo.Allow("MSFT", calendar.CategoryQuotes, now), "other symbols are unaffected")
	assert.True(t, bo.Allow("AAPL", calendar.CategoryNews, now), "other categories are unaffected")
}

func TestBackoffZeroBaseFallsBackToMinute(t *testing.T) {
	bo := newBackoffTracker()
	now := time.Now()

	bo.Fail("AAPL", calendar.CategoryExtendedHours, now, 0)

	assert.False(t, bo.Allow("AAPL", calendar.CategoryExtendedHours, now.Add(30*time.Second)))
	assert.True(t, bo.Allow("AAPL", calendar.CategoryExtendedHours, now.Add(61*time.Second)))
}
