package merge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/symbols"
)

// Subscription is the explicit task handle for one polled symbol set. Each
// subscription runs a single polling goroutine whose period follows the
// calendar's recommended cadence; ticks never overlap because the loop is
// strictly sequential.
type Subscription struct {
	ID      string
	symbols []string
	opts    Options

	engine  *Engine
	backoff *backoffTracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshot  atomic.Pointer[Snapshot]
	updates   chan Snapshot
	tickCount atomic.Uint64
	stopOnce  sync.Once
}

// Subscribe starts polling a symbol set. Symbols are normalized and
// deduplicated; the canonical spelling is the identity everywhere
// downstream.
func (e *Engine) Subscribe(rawSymbols []string, opts Options) *Subscription {
	if opts.AssetClass == "" {
		opts.AssetClass = calendar.AssetClassEquity
	}

	seen := make(map[string]bool, len(rawSymbols))
	canonical := make([]string, 0, len(rawSymbols))
	for _, raw := range rawSymbols {
		symbol := symbols.Normalize(raw)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		canonical = append(canonical, symbol)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		ID:      uuid.NewString(),
		symbols: canonical,
		opts:    opts,
		engine:  e,
		backoff: newBackoffTracker(),
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Snapshot, 1),
	}

	e.mu.Lock()
	e.subs[sub.ID] = sub
	e.mu.Unlock()

	sub.wg.Add(1)
	go sub.run()

	e.log.Info().
		Str("subscription_id", sub.ID).
		Int("symbols", len(canonical)).
		Bool("extended_hours", opts.IncludeExtendedHours).
		Msg("Subscription started")

	return sub
}

// Subscriptions returns the currently active subscriptions.
func (e *Engine) Subscriptions() []*Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (e *Engine) unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
}

// run is the polling loop: an immediate first tick, then timer-driven ticks
// whose period is re-read from the calendar after every pass so cadence
// follows session transitions.
func (s *Subscription) run() {
	defer s.wg.Done()

	s.runTick()

	for {
		session := s.engine.cal.CurrentSession(s.opts.AssetClass)
		timer := time.NewTimer(session.RecommendedTick(s.opts.AssetClass))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runTick()
		}
	}
}

// runTick executes one merge pass and publishes the snapshot, unless the
// subscription was stopped while fetches were in flight.
func (s *Subscription) runTick() {
	snapshot := s.engine.tick(s.ctx, s.symbols, s.opts, s.backoff, s.tickCount.Add(1))

	// A stop during the tick means in-flight fetches finished harmlessly;
	// nothing may be emitted anymore.
	if s.ctx.Err() != nil {
		return
	}

	s.snapshot.Store(&snapshot)
	s.publish(snapshot)
}

// publish delivers latest-wins on the buffered updates channel: a slow
// consumer only ever misses intermediate snapshots, never the newest one.
func (s *Subscription) publish(snapshot Snapshot) {
	select {
	case s.updates <- snapshot:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snapshot:
	default:
	}
}

// Snapshot returns the most recent record set, or false before the first
// tick completes.
func (s *Subscription) Snapshot() (Snapshot, bool) {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		return Snapshot{}, false
	}
	return *snapshot, true
}

// Updates exposes the snapshot stream. The channel closes after Stop.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Symbols returns the canonical watched symbol set.
func (s *Subscription) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Stop cancels the polling timer, waits for any in-flight tick to wind
// down, and closes the update stream. No records are emitted afterwards.
func (s *Subscription) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.engine.unregister(s.ID)
		close(s.updates)

		s.engine.log.Info().Str("subscription_id", s.ID).Msg("Subscription stopped")
	})
}
