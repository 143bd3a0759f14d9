// internal/domain/trend/aggregator.go

package trend

import (
	"context"
)

// Aggregator combines per-source trend scores into one weighted result.
// Implementations never return an error: every failure mode degrades to
// the neutral fallback score and is reflected in FailedSources.
type Aggregator interface {
	// GetTrendScores returns the aggregated trend score for a product,
	// serving from cache when a valid entry exists.
	GetTrendScores(ctx context.Context, productID, keyword string) AggregatedScore
}

// Limiter gates access to external sources against per-source quotas.
type Limiter interface {
	// CanMakeRequest reports whether a request to the source may be
	// attempted. Any uncertainty (missing record, storage failure)
	// yields false.
	CanMakeRequest(ctx context.Context, source Source) bool

	// RecordRequest accounts one request against the source's daily quota.
	RecordRequest(ctx context.Context, source Source) error
}

// Adapter queries one external source for a keyword's trend score.
// GetScore never returns an error: when the source cannot be queried the
// returned Score carries the neutral fallback with Fallback set.
type Adapter interface {
	// Name returns the source this adapter serves.
	Name() Source

	// GetScore returns the normalized 0-1 score for a keyword.
	GetScore(ctx context.Context, keyword string) Score
}
