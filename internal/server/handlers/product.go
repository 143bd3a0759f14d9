// internal/server/handlers/product.go

package handlers

import (
	"encoding/json"
	"net/http"

	"trendrank/internal/domain/product"
	"trendrank/internal/service/ranker"
)

// ProductHandler handles product scoring HTTP requests
type ProductHandler struct {
	ranker *ranker.Ranker
}

// NewProductHandler creates a new product handler
func NewProductHandler(r *ranker.Ranker) *ProductHandler {
	return &ProductHandler{
		ranker: r,
	}
}

// scoreResponse pairs the product with its computed breakdown
type scoreResponse struct {
	ProductID string                 `json:"productId"`
	Scores    product.ScoreBreakdown `json:"scores"`
}

// ScoreProduct computes the full ranking score breakdown for a product
func (h *ProductHandler) ScoreProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if p.ID == "" {
		respondWithError(w, http.StatusBadRequest, "Product ID is required", nil)
		return
	}
	if p.SearchKeyword() == "" {
		respondWithError(w, http.StatusBadRequest, "Product title or keyword is required", nil)
		return
	}

	scores := h.ranker.CalculateScores(r.Context(), p)

	respondWithJSON(w, http.StatusOK, scoreResponse{
		ProductID: p.ID,
		Scores:    scores,
	})
}
