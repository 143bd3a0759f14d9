// internal/server/handlers/source.go

package handlers

import (
	"net/http"

	"trendrank/internal/service/ratelimit"
)

// SourceHandler handles rate-limit source HTTP requests
type SourceHandler struct {
	limiter *ratelimit.Limiter
}

// NewSourceHandler creates a new source handler
func NewSourceHandler(limiter *ratelimit.Limiter) *SourceHandler {
	return &SourceHandler{
		limiter: limiter,
	}
}

// ListSources returns quota and health state for all sources
func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.limiter.ListSources(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list sources", err)
		return
	}

	respondWithJSON(w, http.StatusOK, sources)
}
