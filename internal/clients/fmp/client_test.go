package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", zerolog.Nop())
}

func TestFetchQuotesParsesBatchResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/quote/AAPL,MSFT", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`[
			{"symbol":"AAPL","name":"Apple Inc.","exchange":"NASDAQ","price":232.5,"previousClose":230.0,"open":231.0,"dayHigh":233.1,"dayLow":229.8,"change":2.5,"changesPercentage":1.087,"volume":41230000,"timestamp":1756392000},
			{"symbol":"MSFT","name":"Microsoft Corporation","exchange":"NASDAQ","price":508.2,"previousClose":505.0,"volume":18400000,"timestamp":1756392000}
		]`))
	})

	quotes, err := client.FetchQuotes(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.Equal(t, "Apple Inc.", quotes[0].Name)
	assert.Equal(t, "NASDAQ", quotes[0].Exchange)
	assert.InDelta(t, 232.5, quotes[0].Price, 0.001)
	assert.InDelta(t, 230.0, quotes[0].PreviousClose, 0.001)
	assert.Equal(t, int64(41230000), quotes[0].Volume)
	assert.Equal(t, time.Unix(1756392000, 0), quotes[0].Timestamp)
	assert.NoError(t, quotes[1].Validate())
}

func TestFetchQuotesRejectsOversizedBatch(t *testing.T) {
	client := NewClient("http://localhost", "test-key", zerolog.Nop())

	symbols := make([]string, upstream.MaxBatchSize+1)
	for i := range symbols {
		symbols[i] = "SYM"
	}

	_, err := client.FetchQuotes(context.Background(), symbols)
	assert.Error(t, err)
}

func TestFetchQuotesRejectsEmptyBatch(t *testing.T) {
	client := NewClient("http://localhost", "test-key", zerolog.Nop())

	_, err := client.FetchQuotes(context.Background(), nil)
	assert.Error(t, err)
}

func TestUnconfiguredClientReturnsTypedError(t *testing.T) {
	client := NewClient("http://localhost", "", zerolog.Nop())

	assert.False(t, client.IsConfigured())

	_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
	assert.True(t, upstream.IsNotConfigured(err))
}

func TestRateLimitMapsToTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
	require.True(t, upstream.IsRateLimited(err))

	var rateErr upstream.ErrRateLimited
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 30*time.Second, rateErr.RetryAfter)
}

func TestTimeoutMapsToTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchQuotes(ctx, []string{"AAPL"})
	assert.True(t, upstream.IsTimeout(err))
}

func TestMalformedBodyMapsToTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"this is": "not a quote array"`))
	})

	_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
	assert.True(t, upstream.IsMalformed(err))
}

func TestUnexpectedStatusIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchQuotes(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.False(t, upstream.IsRateLimited(err))
	assert.False(t, upstream.IsTimeout(err))
}

func TestFetchDividendsParsesDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/batch-dividends", r.URL.Path)
		assert.Equal(t, "AAPL,KO", r.URL.Query().Get("symbols"))
		w.Write([]byte(`[
			{"symbol":"AAPL","dividend":1.04,"yield":0.0045,"exDividendDate":"2026-08-10","paymentDate":"2026-08-27","frequency":"quarterly"},
			{"symbol":"KO","dividend":2.04,"yield":0.029,"exDividendDate":"","paymentDate":"","frequency":"quarterly"}
		]`))
	})

	dividends, err := client.FetchDividends(context.Background(), []string{"AAPL", "KO"})
	require.NoError(t, err)
	require.Len(t, dividends, 2)

	assert.Equal(t, "AAPL", dividends[0].Symbol)
	assert.InDelta(t, 1.04, dividends[0].AnnualDividend, 0.001)
	assert.Equal(t, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), dividends[0].ExDividendDate)
	assert.True(t, dividends[1].ExDividendDate.IsZero(), "empty dates parse to the zero time")
}

func TestFetchExtendedHoursTagsSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/batch-pre-post-market/AAPL", r.URL.Path)
		w.Write([]byte(`[{"symbol":"AAPL","price":231.1,"session":"pre","timestamp":1756375200}]`))
	})

	quotes, err := client.FetchExtendedHours(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, upstream.ExtendedSessionPre, quotes[0].Session)
	assert.InDelta(t, 231.1, quotes[0].Price, 0.001)
}

func TestFetchNewsPresenceCountsPerSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/stock_news", r.URL.Path)
		assert.Equal(t, "AAPL,MSFT", r.URL.Query().Get("tickers"))
		w.Write([]byte(`[
			{"symbol":"AAPL","title":"Apple unveils new chip","publishedDate":"2026-08-28 09:15:00"},
			{"symbol":"AAPL","title":"Apple supplier update","publishedDate":"2026-08-28 07:40:00"},
			{"symbol":"TSLA","title":"Unrelated article","publishedDate":"2026-08-28 08:00:00"}
		]`))
	})

	presence, err := client.FetchNewsPresence(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	require.Len(t, presence, 2)

	assert.Equal(t, "AAPL", presence[0].Symbol)
	assert.Equal(t, 2, presence[0].ArticleCount)
	assert.Equal(t, "Apple unveils new chip", presence[0].LatestHeadline)

	assert.Equal(t, "MSFT", presence[1].Symbol)
	assert.Equal(t, 0, presence[1].ArticleCount, "symbols with no articles still get an entry")
}

func TestSearchSymbolsMapsResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","exchangeShortName":"NASDAQ","currency":"USD","country":"US","type":"stock"}]`))
	})

	results, err := client.SearchSymbols(context.Background(), "apple", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "NASDAQ", results[0].Exchange)
	assert.Equal(t, "US", results[0].Country)
	assert.Equal(t, "stock", results[0].AssetType)
}
