package upstream

import "context"

// MaxBatchSize is the largest symbol count a single fetch call may carry.
// Callers chunk larger sets; providers may reject oversized batches.
const MaxBatchSize = 100

// QuoteFetcher fetches current quotes for a batch of symbols.
// A returned slice may omit symbols the provider does not know.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]RawQuote, error)
}

// DividendFetcher fetches dividend fundamentals for a batch of symbols.
type DividendFetcher interface {
	FetchDividends(ctx context.Context, symbols []string) ([]RawDividend, error)
}

// ExtendedHoursFetcher fetches pre/post-market prices for a batch of symbols.
type ExtendedHoursFetcher interface {
	FetchExtendedHours(ctx context.Context, symbols []string) ([]RawExtendedHoursQuote, error)
}

// NewsFetcher fetches news presence for a batch of symbols.
type NewsFetcher interface {
	FetchNewsPresence(ctx context.Context, symbols []string) ([]RawNewsPresence, error)
}

// SymbolSearcher searches the provider's symbol directory.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Fetchers bundles every upstream capability the merge engine consumes.
type Fetchers struct {
	Quotes        QuoteFetcher
	Dividends     DividendFetcher
	ExtendedHours ExtendedHoursFetcher
	News          NewsFetcher
	Search        SymbolSearcher
}
