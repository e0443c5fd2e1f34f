// Package fmp provides the Financial Modeling Prep market data client. It
// implements every upstream fetcher the merge engine consumes, translating
// transport failures into the typed upstream error taxonomy at the boundary.
package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotedesk/quotedesk/internal/upstream"
)

// requestTimeout bounds every provider round trip.
const requestTimeout = 10 * time.Second

// Client is an FMP-compatible REST client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

// NewClient creates a client. An empty API key is allowed; every call then
// returns ErrNotConfigured so callers can degrade to mock data.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        log.With().Str("client", "fmp").Logger(),
	}
}

// IsConfigured reports whether the client has credentials.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// get performs one GET round trip and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.apiKey == "" {
		return upstream.ErrNotConfigured{Provider: "fmp"}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return upstream.ErrTimeout{Operation: path, Err: err}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return upstream.ErrTimeout{Operation: path, Err: err}
		}
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return upstream.ErrRateLimited{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return upstream.ErrMalformedResponse{Detail: path, Err: err}
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// fmpQuote is the provider's quote payload shape.
type fmpQuote struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Exchange          string  `json:"exchange"`
	Price             float64 `json:"price"`
	PreviousClose     float64 `json:"previousClose"`
	Open              float64 `json:"open"`
	DayHigh           float64 `json:"dayHigh"`
	DayLow            float64 `json:"dayLow"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Volume            int64   `json:"volume"`
	Timestamp         int64   `json:"timestamp"`
}

// FetchQuotes fetches current quotes for up to MaxBatchSize symbols in one
// comma-joined request.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]upstream.RawQuote, error) {
	if err := checkBatch(symbols); err != nil {
		return nil, err
	}

	var payload []fmpQuote
	if err := c.get(ctx, "/api/v3/quote/"+url.PathEscape(strings.Join(symbols, ",")), nil, &payload); err != nil {
		return nil, err
	}

	quotes := make([]upstream.RawQuote, 0, len(payload))
	for _, q := range payload {
		quotes = append(quotes, upstream.RawQuote{
			Symbol:        q.Symbol,
			Name:          q.Name,
			Exchange:      q.Exchange,
			Price:         q.Price,
			PreviousClose: q.PreviousClose,
			Open:          q.Open,
			DayHigh:       q.DayHigh,
			DayLow:        q.DayLow,
			Change:        q.Change,
			ChangePercent: q.ChangesPercentage,
			Volume:        q.Volume,
			Timestamp:     time.Unix(q.Timestamp, 0),
		})
	}
	return quotes, nil
}

// fmpDividend is the provider's dividend payload shape.
type fmpDividend struct {
	Symbol         string  `json:"symbol"`
	Dividend       float64 `json:"dividend"`
	Yield          float64 `json:"yield"`
	ExDividendDate string  `json:"exDividendDate"`
	PaymentDate    string  `json:"paymentDate"`
	Frequency      string  `json:"frequency"`
}

// FetchDividends fetches dividend fundamentals for a batch of symbols.
func (c *Client) FetchDividends(ctx context.Context, symbols []string) ([]upstream.RawDividend, error) {
	if err := checkBatch(symbols); err != nil {
		return nil, err
	}

	query := url.Values{"symbols": {strings.Join(symbols, ",")}}
	var payload []fmpDividend
	if err := c.get(ctx, "/api/v4/batch-dividends", query, &payload); err != nil {
		return nil, err
	}

	dividends := make([]upstream.RawDividend, 0, len(payload))
	for _, d := range payload {
		dividends = append(dividends, upstream.RawDividend{
			Symbol:         d.Symbol,
			AnnualDividend: d.Dividend,
			Yield:          d.Yield,
			ExDividendDate: parseDate(d.ExDividendDate),
			PaymentDate:    parseDate(d.PaymentDate),
			Frequency:      d.Frequency,
		})
	}
	return dividends, nil
}

// fmpExtendedQuote is the provider's pre/post-market payload shape.
type fmpExtendedQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Session   string  `json:"session"`
	Timestamp int64   `json:"timestamp"`
}

// FetchExtendedHours fetches pre/post-market prices for a batch of symbols.
func (c *Client) FetchExtendedHours(ctx context.Context, symbols []string) ([]upstream.RawExtendedHoursQuote, error) {
	if err := checkBatch(symbols); err != nil {
		return nil, err
	}

	var payload []fmpExtendedQuote
	if err := c.get(ctx, "/api/v4/batch-pre-post-market/"+url.PathEscape(strings.Join(symbols, ",")), nil, &payload); err != nil {
		return nil, err
	}

	quotes := make([]upstream.RawExtendedHoursQuote, 0, len(payload))
	for _, q := range payload {
		quotes = append(quotes, upstream.RawExtendedHoursQuote{
			Symbol:    q.Symbol,
			Price:     q.Price,
			Session:   upstream.ExtendedSession(q.Session),
			Timestamp: time.Unix(q.Timestamp, 0),
		})
	}
	return quotes, nil
}

// fmpNewsItem is one article in the provider's news feed.
type fmpNewsItem struct {
	Symbol        string `json:"symbol"`
	Title         string `json:"title"`
	PublishedDate string `json:"publishedDate"`
}

// FetchNewsPresence counts recent articles per symbol from the shared news
// feed endpoint.
func (c *Client) FetchNewsPresence(ctx context.Context, symbols []string) ([]upstream.RawNewsPresence, error) {
	if err := checkBatch(symbols); err != nil {
		return nil, err
	}

	query := url.Values{
		"tickers": {strings.Join(symbols, ",")},
		"limit":   {"100"},
	}
	var payload []fmpNewsItem
	if err := c.get(ctx, "/api/v3/stock_news", query, &payload); err != nil {
		return nil, err
	}

	presence := make(map[string]*upstream.RawNewsPresence, len(symbols))
	for _, symbol := range symbols {
		presence[symbol] = &upstream.RawNewsPresence{Symbol: symbol}
	}
	for _, item := range payload {
		entry, ok := presence[item.Symbol]
		if !ok {
			continue
		}
		entry.ArticleCount++
		publishedAt := parseDateTime(item.PublishedDate)
		if publishedAt.After(entry.LatestAt) {
			entry.LatestAt = publishedAt
			entry.LatestHeadline = item.Title
		}
	}

	out := make([]upstream.RawNewsPresence, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, *presence[symbol])
	}
	return out, nil
}

// fmpSearchResult is the provider's symbol-search payload shape.
type fmpSearchResult struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	ExchangeShortName string `json:"exchangeShortName"`
	Currency          string `json:"currency"`
	Country           string `json:"country"`
	Type              string `json:"type"`
}

// SearchSymbols searches the provider's symbol directory.
func (c *Client) SearchSymbols(ctx context.Context, query string, limit int) ([]upstream.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	values := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}
	var payload []fmpSearchResult
	if err := c.get(ctx, "/api/v3/search", values, &payload); err != nil {
		return nil, err
	}

	results := make([]upstream.SearchResult, 0, len(payload))
	for _, r := range payload {
		results = append(results, upstream.SearchResult{
			Symbol:    r.Symbol,
			Name:      r.Name,
			Exchange:  r.ExchangeShortName,
			AssetType: r.Type,
			Country:   r.Country,
			Currency:  r.Currency,
		})
	}
	return results, nil
}

func checkBatch(symbols []string) error {
	if len(symbols) == 0 {
		return fmt.Errorf("empty symbol batch")
	}
	if len(symbols) > upstream.MaxBatchSize {
		return fmt.Errorf("batch of %d symbols exceeds limit %d", len(symbols), upstream.MaxBatchSize)
	}
	return nil
}

func parseDate(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDateTime(raw string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return parseDate(raw)
	}
	return t
}
