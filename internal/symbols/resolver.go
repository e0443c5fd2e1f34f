// Package symbols normalizes ticker spellings and resolves cross-provider
// symbol identity: quote-provider symbol, charting-provider symbol, exchange
// and ADR metadata.
package symbols

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/upstream"
)

// Source tags whether an identity came from the live upstream directory or
// from the built-in fallback list.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// AssetType classifies a listing.
type AssetType string

const (
	AssetTypeStock  AssetType = "stock"
	AssetTypeETF    AssetType = "etf"
	AssetTypeCrypto AssetType = "crypto"
)

// Identity is a fully resolved symbol identity.
type Identity struct {
	RawSymbol       string    `json:"raw_symbol"`
	CanonicalSymbol string    `json:"canonical_symbol"`
	ChartSymbol     string    `json:"chart_symbol"`
	Name            string    `json:"name"`
	Exchange        string    `json:"exchange"`
	AssetType       AssetType `json:"asset_type"`
	Country         string    `json:"country"`
	Currency        string    `json:"currency"`
	IsADR           bool      `json:"is_adr"`
	Source          Source    `json:"source"`
}

// searchTTL bounds how long resolver search results stay cached. Identity
// data moves slowly, but a short TTL keeps degraded fallback results from
// sticking around once the upstream recovers.
const searchTTL = 60 * time.Second

// cryptoBases are the pairs whose alternate spellings collapse to the
// canonical "-USD" form.
var cryptoBases = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "ADA": true, "XRP": true,
	"DOGE": true, "LTC": true, "BNB": true, "AVAX": true, "DOT": true,
}

// Normalize canonicalizes a symbol spelling: uppercased, trimmed, and known
// crypto pair spellings (BTCUSD, BTC/USD) collapsed to BTC-USD. The result
// is the sole cache/lookup key across the system, and Normalize is
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "-")

	if base, ok := strings.CutSuffix(s, "-USD"); ok {
		if cryptoBases[base] {
			return base + "-USD"
		}
		return s
	}
	if base, ok := strings.CutSuffix(s, "USD"); ok {
		if cryptoBases[base] {
			return base + "-USD"
		}
	}
	return s
}

// chartExchangeCodes translates provider exchange codes to the charting
// provider's prefixes. Unknown codes pass through unchanged.
var chartExchangeCodes = map[string]string{
	"NASDAQ":   "NASDAQ",
	"NMS":      "NASDAQ",
	"NGS":      "NASDAQ",
	"NasdaqGS": "NASDAQ",
	"NasdaqCM": "NASDAQ",
	"NYSE":     "NYSE",
	"NYQ":      "NYSE",
	"New York Stock Exchange": "NYSE",
	"AMEX":   "AMEX",
	"ASE":    "AMEX",
	"PCX":    "NYSEARCA",
	"ARCA":   "NYSEARCA",
	"CRYPTO": "CRYPTO",
	"CCC":    "CRYPTO",
}

// ToChartSymbol composes the charting-provider symbol "{exchange}:{symbol}".
// An empty exchange yields the bare normalized symbol.
func ToChartSymbol(symbol, exchange string) string {
	normalized := Normalize(symbol)
	if exchange == "" {
		return normalized
	}
	mapped, ok := chartExchangeCodes[exchange]
	if !ok {
		mapped = exchange
	}
	return mapped + ":" + normalized
}

// domesticExchanges are the US listings venues relevant for ADR detection.
var domesticExchanges = map[string]bool{
	"NYSE":     true,
	"NASDAQ":   true,
	"AMEX":     true,
	"NYSEARCA": true,
	"BATS":     true,
}

// IsADR reports whether a listing is an American Depositary Receipt: listed
// on a recognized domestic exchange while the issuer's country is foreign.
func IsADR(exchange, country string) bool {
	mapped, ok := chartExchangeCodes[exchange]
	if !ok {
		mapped = exchange
	}
	if !domesticExchanges[mapped] {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "", "US", "USA", "UNITED STATES":
		return false
	}
	return true
}

// Resolver resolves symbol queries against an upstream directory, with a
// built-in static fallback when the upstream is unavailable.
type Resolver struct {
	searcher upstream.SymbolSearcher
	cache    *cache.Namespace
	log      zerolog.Logger
}

// NewResolver creates a resolver. searcher may be nil when the upstream is
// unconfigured; every search then uses the fallback list.
func NewResolver(searcher upstream.SymbolSearcher, resolverCache *cache.Namespace, log zerolog.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		cache:    resolverCache,
		log:      log.With().Str("component", "symbol_resolver").Logger(),
	}
}

// Search returns ranked identities for a query. Results are cached briefly,
// keyed by the normalized query text. Degraded (fallback) results are
// explicitly tagged so the UI can distinguish them.
func (r *Resolver) Search(ctx context.Context, query string) []Identity {
	key := "search:" + Normalize(query)

	if cached, ok := r.cache.Get(key); ok {
		if identities, ok := cached.([]Identity); ok {
			return identities
		}
	}

	identities := r.searchUpstream(ctx, query)
	if identities == nil {
		identities = searchFallback(query)
	}

	r.cache.Set(key, identities, searchTTL)
	return identities
}

// searchUpstream queries the injected directory, returning nil when the
// upstream is missing or failed so the caller can fall back.
func (r *Resolver) searchUpstream(ctx context.Context, query string) []Identity {
	if r.searcher == nil {
		return nil
	}

	results, err := r.searcher.SearchSymbols(ctx, query, 10)
	if err != nil {
		r.log.Warn().Err(err).Str("query", query).Msg("Upstream symbol search failed, using fallback list")
		return nil
	}

	identities := make([]Identity, 0, len(results))
	for _, res := range results {
		identities = append(identities, identityFromSearchResult(res))
	}
	return identities
}

// Unresolved builds the explicit degraded identity for a symbol unknown
// everywhere. It is never dropped from output.
func Unresolved(symbol string) Identity {
	canonical := Normalize(symbol)
	return Identity{
		RawSymbol:       symbol,
		CanonicalSymbol: canonical,
		ChartSymbol:     canonical,
		AssetType:       AssetTypeStock,
		Source:          SourceFallback,
	}
}

func identityFromSearchResult(res upstream.SearchResult) Identity {
	return Identity{
		RawSymbol:       res.Symbol,
		CanonicalSymbol: Normalize(res.Symbol),
		ChartSymbol:     ToChartSymbol(res.Symbol, res.Exchange),
		Name:            res.Name,
		Exchange:        res.Exchange,
		AssetType:       assetTypeFromString(res.AssetType),
		Country:         res.Country,
		Currency:        res.Currency,
		IsADR:           IsADR(res.Exchange, res.Country),
		Source:          SourceLive,
	}
}

func assetTypeFromString(raw string) AssetType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "etf":
		return AssetTypeETF
	case "crypto", "cryptocurrency":
		return AssetTypeCrypto
	default:
		return AssetTypeStock
	}
}
