package merge

import (
	"sync"
	"time"

	"github.com/quotedesk/quotedesk/internal/calendar"
)

// backoffCap bounds the exponential delay growth: the retry delay never
// exceeds base * backoffCap.
const backoffCap = 16

// backoffTracker implements capped exponential backoff per (symbol,
// category). The base delay is the category's current poll cadence, doubled
// on every consecutive failure: base, 2x, 4x, 8x, 16x, then flat.
type backoffTracker struct {
	mu     sync.Mutex
	states map[string]*backoffState
}

type backoffState struct {
	consecutive int
	nextAttempt time.Time
}

func newBackoffTracker() *backoffTracker {
	return &backoffTracker{states: make(map[string]*backoffState)}
}

func backoffKey(symbol string, category calendar.Category) string {
	return symbol + "|" + string(category)
}

// Allow reports whether a fetch for (symbol, category) may run now.
func (b *backoffTracker) Allow(symbol string, category calendar.Category, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.states[backoffKey(symbol, category)]
	if !ok {
		return true
	}
	return !now.Before(state.nextAttempt)
}

// Fail records a failed fetch and pushes the next attempt out.
func (b *backoffTracker) Fail(symbol string, category calendar.Category, now time.Time, base time.Duration) {
	if base <= 0 {
		base = time.Minute
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := backoffKey(symbol, category)
	state, ok := b.states[key]
	if !ok {
		state = &backoffState{}
		b.states[key] = state
	}

	state.consecutive++
	multiplier := 1 << (state.consecutive - 1)
	if multiplier > backoffCap || multiplier <= 0 {
		multiplier = backoffCap
	}
	state.nextAttempt = now.Add(base * time.Duration(multiplier))
}

// Reset clears failure state after a successful fetch.
func (b *backoffTracker) Reset(symbol string, category calendar.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.states, backoffKey(symbol, category))
}

// Failures returns the consecutive failure count, for tests and logging.
func (b *backoffTracker) Failures(symbol string, category calendar.Category) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.states[backoffKey(symbol, category)]
	if !ok {
		return 0
	}
	return state.consecutive
}
