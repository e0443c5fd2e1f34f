package merge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/symbols"
	"github.com/quotedesk/quotedesk/internal/upstream"
)

// Options are the per-subscription feature flags.
type Options struct {
	// IncludeExtendedHours enables pre/post-market price fetching while an
	// extended session is running.
	IncludeExtendedHours bool
	// AssetClass selects the cadence model; crypto polls at a fixed rate.
	AssetClass calendar.AssetClass
}

// Engine produces one MergedQuoteRecord per watched symbol per tick. The
// calendar, cache registry and fetchers are injected; the engine owns no
// global state.
type Engine struct {
	cal      *calendar.Calendar
	caches   *cache.Registry
	fetchers upstream.Fetchers
	mockMode bool
	log      zerolog.Logger

	// now is swappable in tests to pin the session phase.
	now func() time.Time

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewEngine creates a merge engine. mockMode marks the injected fetchers as
// credential-less placeholders so their output is tagged truthfully.
func NewEngine(cal *calendar.Calendar, caches *cache.Registry, fetchers upstream.Fetchers, mockMode bool, log zerolog.Logger) *Engine {
	return &Engine{
		cal:      cal,
		caches:   caches,
		fetchers: fetchers,
		mockMode: mockMode,
		log:      log.With().Str("component", "merge_engine").Logger(),
		now:      time.Now,
		subs:     make(map[string]*Subscription),
	}
}

// categoryOutcome records which symbols a category fetch covered this tick.
type categoryOutcome struct {
	fetched map[string]bool // Canonical symbols stored fresh this tick
	failed  map[string]bool // Canonical symbols in a failed chunk
}

func newCategoryOutcome() categoryOutcome {
	return categoryOutcome{fetched: make(map[string]bool), failed: make(map[string]bool)}
}

// tick runs one full merge pass for a symbol set and returns the snapshot.
// Category fetches run concurrently; a failed chunk degrades only its own
// symbols.
func (e *Engine) tick(ctx context.Context, watched []string, opts Options, bo *backoffTracker, tickCount uint64) Snapshot {
	now := e.now()
	session := e.cal.SessionAt(now, opts.AssetClass)

	extendedActive := opts.IncludeExtendedHours &&
		opts.AssetClass != calendar.AssetClassCrypto &&
		(session.Phase == calendar.PhasePreMarket || session.Phase == calendar.PhaseAfterHours)

	var (
		wg       sync.WaitGroup
		quotes   = newCategoryOutcome()
		divs     = newCategoryOutcome()
		news     = newCategoryOutcome()
		extended = newCategoryOutcome()
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.fetchQuotes(ctx, watched, session, bo, &quotes)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.fetchDividends(ctx, watched, session, bo, &divs)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.fetchNews(ctx, watched, session, bo, &news)
	}()

	if extendedActive {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.fetchExtendedHours(ctx, watched, session, bo, &extended)
		}()
	}

	wg.Wait()

	records := make(map[string]MergedQuoteRecord, len(watched))
	for _, symbol := range watched {
		records[symbol] = e.assemble(symbol, now, extendedActive, quotes, divs, news, extended)
	}

	return Snapshot{
		Records:   records,
		Phase:     session.Phase,
		TakenAt:   now,
		TickCount: tickCount,
	}
}

// refreshCandidates partitions the watched set for one category: symbols
// whose cache entry is missing or expired, minus symbols still backing off.
func (e *Engine) refreshCandidates(watched []string, ns *cache.Namespace, category calendar.Category, bo *backoffTracker, now time.Time) []string {
	needs := make([]string, 0, len(watched))
	for _, symbol := range watched {
		if ns.Has(symbol) {
			continue
		}
		if !bo.Allow(symbol, category, now) {
			continue
		}
		needs = append(needs, symbol)
	}
	return needs
}

func (e *Engine) fetchQuotes(ctx context.Context, watched []string, session calendar.Session, bo *backoffTracker, out *categoryOutcome) {
	now := e.now()
	category := calendar.CategoryQuotes
	needs := e.refreshCandidates(watched, e.caches.Quotes, category, bo, now)

	for _, chunk := range chunkSymbols(needs, upstream.MaxBatchSize) {
		fetched, err := e.fetchers.Quotes.FetchQuotes(ctx, chunk)
		if err != nil {
			e.failChunk(chunk, category, session, bo, out, err)
			continue
		}
		for _, raw := range fetched {
			if err := raw.Validate(); err != nil {
				e.log.Warn().Err(err).Msg("Skipping malformed quote record")
				continue
			}
			symbol := symbols.Normalize(raw.Symbol)
			e.caches.Quotes.Set(symbol, raw, session.CacheTTL(category))
			out.fetched[symbol] = true
			bo.Reset(symbol, category)
		}
	}
}

func (e *Engine) fetchDividends(ctx context.Context, watched []string, session calendar.Session, bo *backoffTracker, out *categoryOutcome) {
	now := e.now()
	category := calendar.CategoryDividends
	needs := e.refreshCandidates(watched, e.caches.Dividends, category, bo, now)

	for _, chunk := range chunkSymbols(needs, upstream.MaxBatchSize) {
		fetched, err := e.fetchers.Dividends.FetchDividends(ctx, chunk)
		if err != nil {
			e.failChunk(chunk, category, session, bo, out, err)
			continue
		}
		for _, raw := range fetched {
			if err := raw.Validate(); err != nil {
				e.log.Warn().Err(err).Msg("Skipping malformed dividend record")
				continue
			}
			symbol := symbols.Normalize(raw.Symbol)
			e.caches.Dividends.Set(symbol, raw, session.CacheTTL(category))
			out.fetched[symbol] = true
			bo.Reset(symbol, category)
		}
	}
}

func (e *Engine) fetchNews(ctx context.Context, watched []string, session calendar.Session, bo *backoffTracker, out *categoryOutcome) {
	now := e.now()
	category := calendar.CategoryNews
	needs := e.refreshCandidates(watched, e.caches.News, category, bo, now)

	for _, chunk := range chunkSymbols(needs, upstream.MaxBatchSize) {
		fetched, err := e.fetchers.News.FetchNewsPresence(ctx, chunk)
		if err != nil {
			e.failChunk(chunk, category, session, bo, out, err)
			continue
		}
		for _, raw := range fetched {
			if err := raw.Validate(); err != nil {
				e.log.Warn().Err(err).Msg("Skipping malformed news record")
				continue
			}
			symbol := symbols.Normalize(raw.Symbol)
			e.caches.News.Set(symbol, raw, session.CacheTTL(category))
			out.fetched[symbol] = true
			bo.Reset(symbol, category)
		}
	}
}

func (e *Engine) fetchExtendedHours(ctx context.Context, watched []string, session calendar.Session, bo *backoffTracker, out *categoryOutcome) {
	now := e.now()
	category := calendar.CategoryExtendedHours
	needs := e.refreshCandidates(watched, e.caches.ExtendedHours, category, bo, now)

	for _, chunk := range chunkSymbols(needs, upstream.MaxBatchSize) {
		fetched, err := e.fetchers.ExtendedHours.FetchExtendedHours(ctx, chunk)
		if err != nil {
			e.failChunk(chunk, category, session, bo, out, err)
			continue
		}
		for _, raw := range fetched {
			if err := raw.Validate(); err != nil {
				e.log.Warn().Err(err).Msg("Skipping malformed extended-hours record")
				continue
			}
			symbol := symbols.Normalize(raw.Symbol)
			e.caches.ExtendedHours.Set(symbol, raw, session.CacheTTL(category))
			out.fetched[symbol] = true
			bo.Reset(symbol, category)
		}
	}
}

// failChunk marks every symbol of a failed chunk degraded and backs its
// category off. The tick itself continues with the remaining chunks.
func (e *Engine) failChunk(chunk []string, category calendar.Category, session calendar.Session, bo *backoffTracker, out *categoryOutcome, err error) {
	now := e.now()
	base := session.PollInterval(category)
	for _, symbol := range chunk {
		out.failed[symbol] = true
		bo.Fail(symbol, category, now, base)
	}

	e.log.Warn().
		Err(err).
		Str("category", string(category)).
		Str("kind", classifyUpstreamError(err)).
		Int("symbols", len(chunk)).
		Msg("Upstream batch failed, affected symbols degraded")
}

// assemble combines the freshest available value per field into one
// immutable record and tags its provenance truthfully.
func (e *Engine) assemble(symbol string, now time.Time, extendedActive bool, quotes, divs, news, extended categoryOutcome) MergedQuoteRecord {
	record := MergedQuoteRecord{
		Symbol:      symbol,
		LastUpdated: now,
	}
	parts := make([]Provenance, 0, 4)

	// Quote: the anchor category. Its origin also drives staleness age.
	quoteProv := ProvenanceError
	if value, ok := e.lookup(e.caches.Quotes, symbol, quotes, &quoteProv); ok {
		raw := value.(upstream.RawQuote)
		record.Name = raw.Name
		record.Exchange = raw.Exchange
		record.Price = raw.Price
		record.PreviousClose = raw.PreviousClose
		record.Open = raw.Open
		record.DayHigh = raw.DayHigh
		record.DayLow = raw.DayLow
		record.Volume = raw.Volume

		if quoteProv == ProvenanceLive || quoteProv == ProvenanceMock {
			record.StalenessAgeMs = 0
		} else if age, ok := e.caches.Quotes.Age(symbol); ok {
			record.StalenessAgeMs = age.Milliseconds()
		}
	}
	parts = append(parts, quoteProv)

	// The quote's own change fields may predate the freshest price when the
	// record mixes origins, so the delta is always derived from the two
	// price points directly.
	if record.Price > 0 && record.PreviousClose > 0 {
		record.Change = record.Price - record.PreviousClose
		record.ChangePercent = record.Change / record.PreviousClose
	}

	divProv := ProvenanceError
	if value, ok := e.lookup(e.caches.Dividends, symbol, divs, &divProv); ok {
		raw := value.(upstream.RawDividend)
		record.AnnualDividend = raw.AnnualDividend
		record.DividendYield = raw.Yield
		if !raw.ExDividendDate.IsZero() {
			exDate := raw.ExDividendDate
			record.ExDividendDate = &exDate
		}
		parts = append(parts, divProv)
	}

	newsProv := ProvenanceError
	if value, ok := e.lookup(e.caches.News, symbol, news, &newsProv); ok {
		raw := value.(upstream.RawNewsPresence)
		record.NewsCount = raw.ArticleCount
		parts = append(parts, newsProv)
	}

	if extendedActive {
		extProv := ProvenanceError
		if value, ok := e.lookup(e.caches.ExtendedHours, symbol, extended, &extProv); ok {
			raw := value.(upstream.RawExtendedHoursQuote)
			ext := &ExtendedHoursQuote{
				Price:     raw.Price,
				Session:   raw.Session,
				Timestamp: raw.Timestamp,
			}
			if record.Price > 0 {
				ext.Change = raw.Price - record.Price
				ext.ChangePercent = ext.Change / record.Price
			}
			record.ExtendedHours = ext
			parts = append(parts, extProv)
		}
	}

	record.Provenance = combineProvenance(parts)
	return record
}

// lookup resolves one category's value for a symbol, preferring this tick's
// fetch, then unexpired cache, then stale cache as an explicit fallback.
// In mock mode every served origin is tagged mock.
func (e *Engine) lookup(ns *cache.Namespace, symbol string, out categoryOutcome, prov *Provenance) (any, bool) {
	if out.fetched[symbol] {
		if value, ok := ns.GetStale(symbol); ok {
			*prov = e.tagOrigin(ProvenanceLive)
			return value.Value, true
		}
	}

	if value, ok := ns.Get(symbol); ok {
		*prov = e.tagOrigin(ProvenanceCached)
		return value, true
	}

	if stale, ok := ns.GetStale(symbol); ok {
		*prov = e.tagOrigin(ProvenanceStaleCache)
		return stale.Value, true
	}

	*prov = ProvenanceError
	return nil, false
}

// tagOrigin downgrades origins to mock when the fetchers are placeholders.
func (e *Engine) tagOrigin(origin Provenance) Provenance {
	if e.mockMode {
		return ProvenanceMock
	}
	return origin
}

// chunkSymbols splits a symbol list into batches of at most size.
func chunkSymbols(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[start:end])
	}
	return chunks
}

// classifyUpstreamError maps a fetch error onto the failure taxonomy for
// structured logging.
func classifyUpstreamError(err error) string {
	switch {
	case upstream.IsNotConfigured(err):
		return "not-configured"
	case upstream.IsRateLimited(err):
		return "rate-limited"
	case upstream.IsTimeout(err):
		return "timeout"
	case upstream.IsMalformed(err):
		return "malformed"
	default:
		return "other"
	}
}
