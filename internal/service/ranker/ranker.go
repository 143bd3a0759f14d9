// internal/service/ranker/ranker.go

package ranker

import (
	"context"

	"trendrank/internal/domain/product"
	"trendrank/internal/domain/trend"
)

// Config holds the weighting of the final ranking score
type Config struct {
	TrendWeight    float64
	ProfitWeight   float64
	ViralityWeight float64
}

// DefaultConfig returns the standard ranking weights
func DefaultConfig() Config {
	return Config{
		TrendWeight:    0.3,
		ProfitWeight:   0.4,
		ViralityWeight: 0.3,
	}
}

// Ranker combines the aggregator's social signal with a profitability
// score into the product's final ranking. It is a pure function of its
// inputs: the aggregator never errors, so neither does the ranker.
type Ranker struct {
	aggregator trend.Aggregator
	config     Config
}

// New creates a product ranker
func New(aggregator trend.Aggregator, config Config) *Ranker {
	return &Ranker{
		aggregator: aggregator,
		config:     config,
	}
}

// CalculateScores computes the full score breakdown for a product.
//
// The trend score is the search-interest source's value alone (search
// demand), while virality is the weighted aggregate across all sources
// (social buzz).
func (r *Ranker) CalculateScores(ctx context.Context, p product.Product) product.ScoreBreakdown {
	trendScores := r.aggregator.GetTrendScores(ctx, p.ID, p.SearchKeyword())

	breakdown := product.ScoreBreakdown{
		TrendScore:    trendScores.ScoreFor(trend.SourceGoogle),
		ViralityScore: trendScores.Aggregated,
		ProfitScore:   ProfitScore(p.Price, p.CommissionPercent),
	}

	breakdown.OverallScore = r.config.TrendWeight*breakdown.TrendScore +
		r.config.ProfitWeight*breakdown.ProfitScore +
		r.config.ViralityWeight*breakdown.ViralityScore

	return breakdown
}

// ProfitScore rewards absolute commission dollars up to a $10 ceiling,
// with a small bonus for deals paying more than 5%.
func ProfitScore(price, commissionPercent float64) float64 {
	commissionDollars := price * commissionPercent / 100

	score := commissionDollars / 10
	if score > 1 {
		score = 1
	}

	if commissionPercent > 5 {
		score += 0.1
	}

	return trend.ClampScore(score)
}
