// internal/service/source/adapter.go

// Package source implements the per-platform trend adapters. Every
// adapter satisfies trend.Adapter: GetScore always returns a usable
// Score and never an error. Failures degrade to the configured neutral
// score with the cause recorded on the result.
package source

import (
	"time"

	"trendrank/internal/domain/trend"
)

// Normalization divisors. Each adapter maps its source-native scale to
// [0, 1] with a fixed divisor, clamped at 1.0.
const (
	// Google Trends interest values are already on a 0-100 scale.
	googleInterestDivisor = 100.0

	// 1000 tweets mentioning the keyword in the past week = 1.0.
	twitterMentionDivisor = 1000.0

	// 50000 combined upvotes+comments across top posts = 1.0.
	redditEngagementDivisor = 50000.0

	// 100M hashtag views = 1.0.
	tiktokViewDivisor = 100_000_000.0
)

// normalize maps a raw source metric to [0, 1] using a fixed divisor.
func normalize(value, divisor float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return trend.ClampScore(value / divisor)
}

// fallback builds the degraded Score substituted when a source cannot
// be queried.
func fallback(s trend.Source, neutral float64, cause string) trend.Score {
	return trend.Score{
		Source:    s,
		Value:     neutral,
		FetchedAt: time.Now(),
		Fallback:  true,
		Cause:     cause,
	}
}
