// internal/server/handlers/trend.go

package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trendrank/internal/domain/trend"
	"trendrank/internal/service/trendcache"
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	aggregator trend.Aggregator
	cache      *trendcache.Cache
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(aggregator trend.Aggregator, cache *trendcache.Cache) *TrendHandler {
	return &TrendHandler{
		aggregator: aggregator,
		cache:      cache,
	}
}

// aggregateRequest is the body of a forced aggregation request
type aggregateRequest struct {
	ProductID string `json:"productId"`
	Keyword   string `json:"keyword"`
}

// AggregateTrends computes (or serves from cache) the aggregated trend
// score for a product
func (h *TrendHandler) AggregateTrends(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProductID == "" || req.Keyword == "" {
		respondWithError(w, http.StatusBadRequest, "productId and keyword are required", nil)
		return
	}

	result := h.aggregator.GetTrendScores(r.Context(), req.ProductID, req.Keyword)

	respondWithJSON(w, http.StatusOK, result)
}

// GetCachedTrends returns the cached trend entry for a product without
// triggering any source queries
func (h *TrendHandler) GetCachedTrends(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing product ID", nil)
		return
	}

	entry := h.cache.Get(r.Context(), productID)
	if entry == nil {
		respondWithError(w, http.StatusNotFound, "No valid cache entry for product", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// InvalidateTrends hard-removes a product's cache entry
func (h *TrendHandler) InvalidateTrends(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing product ID", nil)
		return
	}

	if err := h.cache.Delete(r.Context(), productID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to invalidate cache entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		log.Printf("HTTP error %d: %s: %v", code, message, err)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
