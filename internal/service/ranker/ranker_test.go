package ranker

import (
	"context"
	"math"
	"testing"

	"trendrank/internal/domain/product"
	"trendrank/internal/domain/trend"
)

// fakeAggregator returns a fixed score and remembers what it was asked.
type fakeAggregator struct {
	score       trend.AggregatedScore
	lastProduct string
	lastKeyword string
}

func (f *fakeAggregator) GetTrendScores(_ context.Context, productID, keyword string) trend.AggregatedScore {
	f.lastProduct = productID
	f.lastKeyword = keyword
	return f.score
}

func TestProfitScore(t *testing.T) {
	tests := []struct {
		name              string
		price             float64
		commissionPercent float64
		want              float64
	}{
		{
			name:              "high commission saturates with bonus",
			price:             100,
			commissionPercent: 10,
			want:              1.0, // $10 commission caps the base, bonus clamps back to 1
		},
		{
			name:              "low commission scales linearly",
			price:             20,
			commissionPercent: 3,
			want:              0.06, // $0.60 commission, no bonus at 3%
		},
		{
			name:              "bonus applies above five percent",
			price:             50,
			commissionPercent: 6,
			want:              0.4, // $3 commission -> 0.3, plus 0.1 bonus
		},
		{
			name:              "zero price yields zero",
			price:             0,
			commissionPercent: 10,
			want:              0.1, // no commission dollars, bonus alone
		},
		{
			name:              "no commission yields zero",
			price:             100,
			commissionPercent: 0,
			want:              0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitScore(tt.price, tt.commissionPercent)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ProfitScore(%v, %v) = %v, want %v", tt.price, tt.commissionPercent, got, tt.want)
			}
		})
	}
}

func TestCalculateScores(t *testing.T) {
	agg := &fakeAggregator{
		score: trend.AggregatedScore{
			Google:     0.8,
			Twitter:    0.6,
			Reddit:     0.4,
			TikTok:     0.2,
			Aggregated: 0.53,
		},
	}
	r := New(agg, DefaultConfig())

	p := product.Product{
		ID:                "prod-1",
		Title:             "Wireless Earbuds Pro X3",
		Keyword:           "wireless earbuds",
		Price:             100,
		CommissionPercent: 10,
	}

	got := r.CalculateScores(context.Background(), p)

	if agg.lastProduct != "prod-1" {
		t.Errorf("aggregator queried with product %q, want %q", agg.lastProduct, "prod-1")
	}
	if agg.lastKeyword != "wireless earbuds" {
		t.Errorf("aggregator queried with keyword %q, want %q", agg.lastKeyword, "wireless earbuds")
	}

	if got.TrendScore != 0.8 {
		t.Errorf("trend score = %v, want the search-interest source value 0.8", got.TrendScore)
	}
	if got.ViralityScore != 0.53 {
		t.Errorf("virality score = %v, want the aggregate 0.53", got.ViralityScore)
	}
	if got.ProfitScore != 1.0 {
		t.Errorf("profit score = %v, want 1.0", got.ProfitScore)
	}

	want := 0.3*0.8 + 0.4*1.0 + 0.3*0.53 // 0.799
	if math.Abs(got.OverallScore-want) > 1e-9 {
		t.Errorf("overall score = %v, want %v", got.OverallScore, want)
	}
}

func TestCalculateScoresUsesTitleWhenKeywordEmpty(t *testing.T) {
	agg := &fakeAggregator{score: trend.AggregatedScore{Aggregated: 0.5}}
	r := New(agg, DefaultConfig())

	r.CalculateScores(context.Background(), product.Product{
		ID:    "prod-2",
		Title: "Posture Corrector",
	})

	if agg.lastKeyword != "Posture Corrector" {
		t.Errorf("aggregator queried with keyword %q, want the product title", agg.lastKeyword)
	}
}
