// Package upstream defines the contracts between the merge engine and the
// injected market data providers: validated raw record types, batch fetcher
// interfaces, and the typed failures a provider may return.
//
// Raw payloads are parsed into these tagged record types at the provider
// boundary; malformed records are rejected there instead of being merged.
package upstream

import (
	"fmt"
	"time"
)

// RawQuote is one provider quote record, validated at the boundary.
type RawQuote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Exchange      string    `json:"exchange"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Open          float64   `json:"open"`
	DayHigh       float64   `json:"day_high"`
	DayLow        float64   `json:"day_low"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate rejects records that cannot be merged safely.
func (q RawQuote) Validate() error {
	if q.Symbol == "" {
		return fmt.Errorf("quote record missing symbol")
	}
	if q.Price <= 0 {
		return fmt.Errorf("quote record for %s has non-positive price %.4f", q.Symbol, q.Price)
	}
	return nil
}

// RawDividend is one provider dividend record.
type RawDividend struct {
	Symbol         string    `json:"symbol"`
	AnnualDividend float64   `json:"annual_dividend"`
	Yield          float64   `json:"yield"`
	ExDividendDate time.Time `json:"ex_dividend_date"`
	PaymentDate    time.Time `json:"payment_date"`
	Frequency      string    `json:"frequency"`
}

// Validate rejects records that cannot be merged safely.
func (d RawDividend) Validate() error {
	if d.Symbol == "" {
		return fmt.Errorf("dividend record missing symbol")
	}
	if d.AnnualDividend < 0 {
		return fmt.Errorf("dividend record for %s has negative amount", d.Symbol)
	}
	return nil
}

// ExtendedSession tags which extended session a price belongs to.
type ExtendedSession string

const (
	ExtendedSessionPre  ExtendedSession = "pre"
	ExtendedSessionPost ExtendedSession = "post"
)

// RawExtendedHoursQuote is one pre/post-market price record.
type RawExtendedHoursQuote struct {
	Symbol    string          `json:"symbol"`
	Price     float64         `json:"price"`
	Session   ExtendedSession `json:"session"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate rejects records that cannot be merged safely.
func (e RawExtendedHoursQuote) Validate() error {
	if e.Symbol == "" {
		return fmt.Errorf("extended-hours record missing symbol")
	}
	if e.Price <= 0 {
		return fmt.Errorf("extended-hours record for %s has non-positive price %.4f", e.Symbol, e.Price)
	}
	if e.Session != ExtendedSessionPre && e.Session != ExtendedSessionPost {
		return fmt.Errorf("extended-hours record for %s has unknown session %q", e.Symbol, e.Session)
	}
	return nil
}

// RawNewsPresence reports how much recent news coverage a symbol has.
type RawNewsPresence struct {
	Symbol         string    `json:"symbol"`
	ArticleCount   int       `json:"article_count"`
	LatestHeadline string    `json:"latest_headline"`
	LatestAt       time.Time `json:"latest_at"`
}

// Validate rejects records that cannot be merged safely.
func (n RawNewsPresence) Validate() error {
	if n.Symbol == "" {
		return fmt.Errorf("news record missing symbol")
	}
	if n.ArticleCount < 0 {
		return fmt.Errorf("news record for %s has negative article count", n.Symbol)
	}
	return nil
}

// SearchResult is one symbol-search hit from a provider.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	AssetType string `json:"asset_type"`
	Country   string `json:"country"`
	Currency  string `json:"currency"`
}
