// Package merge orchestrates the trading calendar, TTL caches, symbol
// resolver and upstream fetchers into one consistent per-symbol record per
// polling tick.
package merge

import (
	"time"

	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/upstream"
)

// Provenance describes which origin produced a record's data.
type Provenance string

const (
	// ProvenanceLive: fetched from the upstream this tick.
	ProvenanceLive Provenance = "live"
	// ProvenanceCached: served from unexpired cache.
	ProvenanceCached Provenance = "cached"
	// ProvenanceStaleCache: served from expired cache after a fetch failure.
	ProvenanceStaleCache Provenance = "stale-cache"
	// ProvenanceMock: deterministic placeholder, no upstream credentials.
	ProvenanceMock Provenance = "mock"
	// ProvenanceError: no usable data at all.
	ProvenanceError Provenance = "error"
	// ProvenanceMixed: constituent fields span more than one origin.
	ProvenanceMixed Provenance = "mixed"
)

// ExtendedHoursQuote is the optional pre/post-market slice of a record.
type ExtendedHoursQuote struct {
	Price         float64                  `json:"price"`
	Session       upstream.ExtendedSession `json:"session"`
	Change        float64                  `json:"change"`
	ChangePercent float64                  `json:"change_percent"`
	Timestamp     time.Time                `json:"timestamp"`
}

// MergedQuoteRecord is the per-symbol output of one tick. Records are
// immutable once assembled: every tick replaces the whole record, never a
// field in place.
type MergedQuoteRecord struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Exchange string `json:"exchange,omitempty"`

	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Open          float64 `json:"open"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`

	AnnualDividend float64    `json:"annual_dividend"`
	DividendYield  float64    `json:"dividend_yield"`
	ExDividendDate *time.Time `json:"ex_dividend_date,omitempty"`

	ExtendedHours *ExtendedHoursQuote `json:"extended_hours,omitempty"`

	NewsCount int `json:"news_count"`

	Provenance     Provenance `json:"provenance"`
	LastUpdated    time.Time  `json:"last_updated"`
	StalenessAgeMs int64      `json:"staleness_age_ms"`
}

// Snapshot is the immutable output of one tick: a wholly new record set,
// swapped atomically so readers never observe a partial update.
type Snapshot struct {
	Records   map[string]MergedQuoteRecord `json:"records"`
	Phase     calendar.Phase               `json:"phase"`
	TakenAt   time.Time                    `json:"taken_at"`
	TickCount uint64                       `json:"tick_count"`
}

// combineProvenance folds per-category origins into the record-level tag.
// A record whose fields all share one origin keeps it; anything spanning
// several origins is mixed, which keeps the tag truthful when a live price
// overlays stale fundamentals.
func combineProvenance(parts []Provenance) Provenance {
	if len(parts) == 0 {
		return ProvenanceError
	}

	first := parts[0]
	for _, p := range parts[1:] {
		if p != first {
			return ProvenanceMixed
		}
	}
	return first
}
