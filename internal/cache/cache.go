// Package cache provides bounded in-memory TTL caches for upstream market
// data. Each data category owns an independent namespace with its own
// capacity; values expire after a per-entry TTL and the oldest-inserted
// entry is evicted under capacity pressure.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with its bookkeeping timestamps.
type Entry struct {
	Key       string
	Value     any
	StoredAt  time.Time
	ExpiresAt time.Time
}

// StaleResult is returned by GetStale: the last known value plus a flag
// telling the caller whether the TTL has already lapsed.
type StaleResult struct {
	Value   any
	IsStale bool
}

// Stats is a point-in-time snapshot of namespace counters.
type Stats struct {
	Namespace string `json:"namespace"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	StaleHits uint64 `json:"stale_hits"`
	Evictions uint64 `json:"evictions"`
}

// Namespace is a single bounded key/value store. All operations are safe
// for concurrent use; every mutation runs under one mutex so the
// size/eviction invariant holds across concurrent ticks.
type Namespace struct {
	name     string
	capacity int

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string // Insertion order, oldest first

	hits      uint64
	misses    uint64
	staleHits uint64
	evictions uint64
}

// NewNamespace creates a namespace with the given capacity bound.
func NewNamespace(name string, capacity int) *Namespace {
	if capacity <= 0 {
		capacity = 100
	}
	return &Namespace{
		name:     name,
		capacity: capacity,
		entries:  make(map[string]*Entry, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return n.name
}

// Set stores a value with expiration now+ttl. Overwriting an existing key
// counts as a fresh insertion and moves the key to the back of the eviction
// order. When the namespace is at capacity, exactly one oldest-inserted
// entry is evicted before the insert.
func (n *Namespace) Set(key string, value any, ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()

	if _, exists := n.entries[key]; exists {
		n.removeFromOrder(key)
	} else if len(n.entries) >= n.capacity {
		oldest := n.order[0]
		n.order = n.order[1:]
		delete(n.entries, oldest)
		n.evictions++
	}

	n.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	n.order = append(n.order, key)
}

// Get returns the value for key if present and unexpired. Expired entries
// are treated as not-found but are left in place for GetStale.
func (n *Namespace) Get(key string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.entries[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		n.misses++
		return nil, false
	}

	n.hits++
	return entry.Value, true
}

// GetStale returns the last known value for key even after expiry,
// annotated with its staleness.
func (n *Namespace) GetStale(key string) (StaleResult, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.entries[key]
	if !ok {
		n.misses++
		return StaleResult{}, false
	}

	isStale := time.Now().After(entry.ExpiresAt)
	if isStale {
		n.staleHits++
	} else {
		n.hits++
	}
	return StaleResult{Value: entry.Value, IsStale: isStale}, true
}

// Has reports whether key is present and unexpired.
func (n *Namespace) Has(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.entries[key]
	return ok && !time.Now().After(entry.ExpiresAt)
}

// Age returns how long ago the entry for key was stored, or false when the
// key is unknown. Used to report staleness on merged records.
func (n *Namespace) Age(key string) (time.Duration, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.entries[key]
	if !ok {
		return 0, false
	}
	return time.Since(entry.StoredAt), true
}

// Clear removes every entry.
func (n *Namespace) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.entries = make(map[string]*Entry, n.capacity)
	n.order = n.order[:0]
}

// Cleanup removes all expired entries and returns how many were removed.
func (n *Namespace) Cleanup() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	removed := 0
	kept := n.order[:0]
	for _, key := range n.order {
		entry := n.entries[key]
		if entry != nil && now.After(entry.ExpiresAt) {
			delete(n.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	n.order = kept
	return removed
}

// Size returns the current number of entries, expired included.
func (n *Namespace) Size() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Stats returns a snapshot of the namespace counters.
func (n *Namespace) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()

	return Stats{
		Namespace: n.name,
		Size:      len(n.entries),
		Capacity:  n.capacity,
		Hits:      n.hits,
		Misses:    n.misses,
		StaleHits: n.staleHits,
		Evictions: n.evictions,
	}
}

// removeFromOrder deletes key from the insertion-order slice.
// Caller must hold the mutex.
func (n *Namespace) removeFromOrder(key string) {
	for i, k := range n.order {
		if k == key {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}
