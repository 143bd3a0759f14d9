// internal/domain/product/model.go

package product

import (
	"strings"
)

// Product is the subset of the catalog record the ranking engine needs.
type Product struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Keyword           string  `json:"keyword,omitempty"`
	Price             float64 `json:"price"`
	CommissionPercent float64 `json:"commissionPercent"`
}

// SearchKeyword returns the term used to query trend sources for this
// product: the explicit keyword when set, otherwise the title.
func (p Product) SearchKeyword() string {
	if kw := strings.TrimSpace(p.Keyword); kw != "" {
		return kw
	}
	return strings.TrimSpace(p.Title)
}

// ScoreBreakdown holds the individual and combined ranking scores for a
// product. All values are in [0, 1].
type ScoreBreakdown struct {
	TrendScore    float64 `json:"trendScore"`
	ProfitScore   float64 `json:"profitScore"`
	ViralityScore float64 `json:"viralityScore"`
	OverallScore  float64 `json:"overallScore"`
}
