package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/cache"
	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/merge"
	"github.com/quotedesk/quotedesk/internal/symbols"
)

type staticSource struct {
	snapshot merge.Snapshot
	ok       bool
}

func (s staticSource) Snapshot() (merge.Snapshot, bool) {
	return s.snapshot, s.ok
}

func newTestServer(t *testing.T, source SnapshotSource) *Server {
	t.Helper()
	registry := cache.NewRegistry()
	return New(Config{
		Log:      zerolog.Nop(),
		Port:     0,
		DevMode:  true,
		Calendar: calendar.New(zerolog.Nop()),
		Caches:   registry,
		Resolver: symbols.NewResolver(nil, registry.Resolver, zerolog.Nop()),
		Source:   source,
	})
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestSnapshotEndpointReturnsRecords(t *testing.T) {
	snapshot := merge.Snapshot{
		Phase:   calendar.PhaseRegular,
		TakenAt: time.Now(),
		Records: map[string]merge.MergedQuoteRecord{
			"AAPL": {Symbol: "AAPL", Price: 232.5, Provenance: merge.ProvenanceLive},
		},
		TickCount: 3,
	}
	srv := newTestServer(t, staticSource{snapshot: snapshot, ok: true})

	rec := doRequest(t, srv, "/api/quotes/snapshot")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(calendar.PhaseRegular), body["phase"])
	assert.Equal(t, float64(3), body["tick_count"])

	records, ok := body["records"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, records, "AAPL")
}

func TestSnapshotEndpointBeforeFirstTick(t *testing.T) {
	srv := newTestServer(t, staticSource{ok: false})

	rec := doRequest(t, srv, "/api/quotes/snapshot")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "no snapshot")
}

func TestSnapshotEndpointWithoutSubscription(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, "/api/quotes/snapshot")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, staticSource{})
	srv.caches.Quotes.Set("AAPL", 1.0, time.Minute)

	rec := doRequest(t, srv, "/api/cache/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	namespaces, ok := decodeBody(t, rec)["namespaces"].([]any)
	require.True(t, ok)
	assert.Len(t, namespaces, 6)
}

func TestSymbolSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/symbols/search?q=apple")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "apple", body["query"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, results, "fallback directory matches apple")
}

func TestSymbolSearchUnknownSymbolYieldsUnresolvedIdentity(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/symbols/search?q=ZZZZQ")

	require.Equal(t, http.StatusOK, rec.Code)
	results, ok := decodeBody(t, rec)["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)

	identity, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ZZZZQ", identity["canonical_symbol"])
	assert.Equal(t, string(symbols.SourceFallback), identity["source"])
}

func TestSymbolSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/symbols/search")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSymbolSearchRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/symbols/search?q=apple&limit=zero")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, staticSource{})

	rec := doRequest(t, srv, "/api/market/status")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "phase")
	assert.Contains(t, body, "is_trading")
}
