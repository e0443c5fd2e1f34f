// Package mockdata generates deterministic placeholder market data for
// running without provider credentials. Values are derived from the symbol
// text so the same symbol always produces the same quote.
package mockdata

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/quotedesk/quotedesk/internal/upstream"
)

// Provider implements the upstream fetcher interfaces with synthetic data.
type Provider struct {
	now func() time.Time
}

// NewProvider creates a mock data provider.
func NewProvider() *Provider {
	return &Provider{now: time.Now}
}

func symbolSeed(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return h.Sum64()
}

// basePrice maps a symbol to a stable price between 20 and 520.
func basePrice(symbol string) float64 {
	seed := symbolSeed(symbol)
	dollars := float64(seed%500) + 20
	cents := float64(seed/500%100) / 100
	return dollars + cents
}

// FetchQuotes returns synthetic quotes for every requested symbol.
func (p *Provider) FetchQuotes(_ context.Context, symbols []string) ([]upstream.RawQuote, error) {
	now := p.now()
	quotes := make([]upstream.RawQuote, 0, len(symbols))
	for _, symbol := range symbols {
		price := basePrice(symbol)
		prevClose := math.Round(price*0.985*100) / 100
		quotes = append(quotes, upstream.RawQuote{
			Symbol:        symbol,
			Name:          symbol + " (Mock)",
			Exchange:      "NASDAQ",
			Price:         price,
			PreviousClose: prevClose,
			Open:          prevClose,
			DayHigh:       math.Round(price*1.01*100) / 100,
			DayLow:        math.Round(price*0.99*100) / 100,
			Change:        price - prevClose,
			ChangePercent: (price - prevClose) / prevClose,
			Volume:        int64(symbolSeed(symbol)%9_000_000) + 1_000_000,
			Timestamp:     now,
		})
	}
	return quotes, nil
}

// FetchDividends returns a synthetic dividend for roughly half the symbols,
// so callers exercise both the present and absent paths.
func (p *Provider) FetchDividends(_ context.Context, symbols []string) ([]upstream.RawDividend, error) {
	now := p.now()
	dividends := make([]upstream.RawDividend, 0, len(symbols))
	for _, symbol := range symbols {
		seed := symbolSeed(symbol)
		if seed%2 != 0 {
			continue
		}
		annual := math.Round(basePrice(symbol)*0.015*100) / 100
		dividends = append(dividends, upstream.RawDividend{
			Symbol:         symbol,
			AnnualDividend: annual,
			Yield:          annual / basePrice(symbol),
			ExDividendDate: now.AddDate(0, 0, int(seed%28)+1),
			PaymentDate:    now.AddDate(0, 1, int(seed%28)+1),
			Frequency:      "quarterly",
		})
	}
	return dividends, nil
}

// FetchExtendedHours returns a synthetic pre-market price slightly off the
// regular price.
func (p *Provider) FetchExtendedHours(_ context.Context, symbols []string) ([]upstream.RawExtendedHoursQuote, error) {
	now := p.now()
	quotes := make([]upstream.RawExtendedHoursQuote, 0, len(symbols))
	for _, symbol := range symbols {
		price := basePrice(symbol)
		quotes = append(quotes, upstream.RawExtendedHoursQuote{
			Symbol:    symbol,
			Price:     math.Round(price*1.002*100) / 100,
			Session:   upstream.ExtendedSessionPre,
			Timestamp: now,
		})
	}
	return quotes, nil
}

// FetchNewsPresence returns a stable article count per symbol.
func (p *Provider) FetchNewsPresence(_ context.Context, symbols []string) ([]upstream.RawNewsPresence, error) {
	now := p.now()
	presence := make([]upstream.RawNewsPresence, 0, len(symbols))
	for _, symbol := range symbols {
		count := int(symbolSeed(symbol) % 5)
		entry := upstream.RawNewsPresence{Symbol: symbol, ArticleCount: count}
		if count > 0 {
			entry.LatestHeadline = symbol + " placeholder headline"
			entry.LatestAt = now.Add(-time.Duration(count) * time.Hour)
		}
		presence = append(presence, entry)
	}
	return presence, nil
}
