package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/upstream"
)

func TestSubscribeNormalizesAndDeduplicates(t *testing.T) {
	stub := &stubUpstream{}
	engine, _ := newTestEngine(t, stub, false)

	sub := engine.Subscribe([]string{" aapl ", "AAPL", "btc/usd"}, Options{})
	defer sub.Stop()

	assert.Equal(t, []string{"AAPL", "BTC-USD"}, sub.Symbols())
	assert.NotEmpty(t, sub.ID)
}

func TestSubscriptionEmitsFirstSnapshot(t *testing.T) {
	stub := &stubUpstream{
		quoteFn: func(symbols []string) ([]upstream.RawQuote, error) {
			return quotesFor(symbols), nil
		},
	}
	engine, _ := newTestEngine(t, stub, false)

	sub := engine.Subscribe([]string{"AAPL", "MSFT"}, Options{})
	defer sub.Stop()

	select {
	case snapshot := <-sub.Updates():
		require.Len(t, snapshot.Records, 2)
		assert.Equal(t, ProvenanceLive, snapshot.Records["AAPL"].Provenance)
		assert.Equal(t, uint64(1), snapshot.TickCount)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first snapshot")
	}

	snapshot, ok := sub.Snapshot()
	require.True(t, ok)
	assert.Len(t, snapshot.Records, 2)
}

func TestSubscriptionSnapshotBeforeFirstTick(t *testing.T) {
	sub := &Subscription{}

	_, ok := sub.Snapshot()
	assert.False(t, ok)
}

func TestStopClosesUpdatesAndUnregisters(t *testing.T) {
	stub := &stubUpstream{
		quoteFn: func(symbols []string) ([]upstream.RawQuote, error) {
			return quotesFor(symbols), nil
		},
	}
	engine, _ := newTestEngine(t, stub, false)

	sub := engine.Subscribe([]string{"AAPL"}, Options{})
	require.Len(t, engine.Subscriptions(), 1)

	// Drain the first snapshot so close is observable below.
	select {
	case <-sub.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first snapshot")
	}

	sub.Stop()

	assert.Empty(t, engine.Subscriptions())

	// The channel must be closed and deliver nothing further.
	select {
	case _, open := <-sub.Updates():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("updates channel was not closed")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	stub := &stubUpstream{}
	engine, _ := newTestEngine(t, stub, false)

	sub := engine.Subscribe([]string{"AAPL"}, Options{})
	sub.Stop()
	sub.Stop() // Must not panic or block.
}

func TestPublishIsLatestWins(t *testing.T) {
	sub := &Subscription{updates: make(chan Snapshot, 1)}

	sub.publish(Snapshot{TickCount: 1})
	sub.publish(Snapshot{TickCount: 2})
	sub.publish(Snapshot{TickCount: 3})

	snapshot := <-sub.Updates()
	assert.Equal(t, uint64(3), snapshot.TickCount, "a slow consumer sees the newest snapshot")
}
