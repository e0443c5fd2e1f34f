package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/quotedesk/quotedesk/internal/calendar"
	"github.com/quotedesk/quotedesk/internal/symbols"
)

// searchLimit caps results returned by the symbol search endpoint.
const searchLimit = 25

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSnapshot returns the most recent merged snapshot. Returns 503 until
// the first tick completes.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no active subscription")
		return
	}

	snapshot, ok := s.source.Snapshot()
	if !ok {
		s.respondError(w, http.StatusServiceUnavailable, "no snapshot available yet")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"phase":      string(snapshot.Phase),
		"taken_at":   snapshot.TakenAt,
		"tick_count": snapshot.TickCount,
		"records":    snapshot.Records,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"namespaces": s.caches.Stats(),
	})
}

func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := searchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	identities := s.resolver.Search(r.Context(), query)
	if len(identities) > limit {
		identities = identities[:limit]
	}
	if len(identities) == 0 {
		// An unknown symbol still yields an explicit degraded identity
		// rather than an empty result set.
		identities = []symbols.Identity{symbols.Unresolved(query)}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": identities,
	})
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	session := s.calendar.SessionAt(now, calendar.AssetClassEquity)

	payload := map[string]any{
		"phase":          string(session.Phase),
		"is_trading":     session.IsTrading(),
		"is_early_close": session.IsEarlyClose,
		"as_of":          now.UTC().Format(time.RFC3339),
	}
	if !session.NextOpenAt.IsZero() {
		payload["next_open_at"] = session.NextOpenAt.UTC().Format(time.RFC3339)
	}

	s.respondJSON(w, http.StatusOK, payload)
}
