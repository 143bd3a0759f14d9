// internal/domain/trend/model.go

package trend

import (
	"fmt"
	"math"
	"time"
)

// Source identifies one external trend data source.
type Source string

const (
	SourceGoogle  Source = "google"
	SourceTwitter Source = "twitter"
	SourceReddit  Source = "reddit"
	SourceTikTok  Source = "tiktok"
)

// Sources returns all known sources in canonical order.
func Sources() []Source {
	return []Source{SourceGoogle, SourceTwitter, SourceReddit, SourceTikTok}
}

// Status represents the health state of a source
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusError  Status = "error"
)

// RawMetrics holds the source-native numbers a normalized score was derived from
type RawMetrics struct {
	Mentions   int64 `json:"mentions,omitempty"`
	Engagement int64 `json:"engagement,omitempty"`
	Views      int64 `json:"views,omitempty"`
}

// Score is the normalized result of querying one source for a keyword.
// Adapters always return a Score; when a source could not be queried the
// Fallback flag is set and Cause records why.
type Score struct {
	Source    Source     `json:"source"`
	Value     float64    `json:"value"`
	Raw       RawMetrics `json:"raw"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Fallback  bool       `json:"fallback"`
	Cause     string     `json:"cause,omitempty"`
}

// Weights defines how per-source scores combine into one aggregate.
// The four weights must sum to 1.0.
type Weights struct {
	Google  float64
	Twitter float64
	Reddit  float64
	TikTok  float64
}

// DefaultWeights returns the standard weighting: search interest carries
// the most signal, short-video the least.
func DefaultWeights() Weights {
	return Weights{Google: 0.30, Twitter: 0.25, Reddit: 0.25, TikTok: 0.20}
}

// Validate checks that the weights sum to 1.0 within a small epsilon.
func (w Weights) Validate() error {
	sum := w.Google + w.Twitter + w.Reddit + w.TikTok
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("source weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// For returns the weight assigned to a source.
func (w Weights) For(s Source) float64 {
	switch s {
	case SourceGoogle:
		return w.Google
	case SourceTwitter:
		return w.Twitter
	case SourceReddit:
		return w.Reddit
	case SourceTikTok:
		return w.TikTok
	}
	return 0
}

// Combine computes the weighted aggregate of the four per-source scores.
func (w Weights) Combine(google, twitter, reddit, tiktok float64) float64 {
	return google*w.Google + twitter*w.Twitter + reddit*w.Reddit + tiktok*w.TikTok
}

// ClampScore bounds a normalized score to [0, 1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AggregatedScore is the combined trend result for one product.
type AggregatedScore struct {
	ProductID     string    `json:"productId"`
	Keyword       string    `json:"keyword"`
	Google        float64   `json:"google"`
	Twitter       float64   `json:"twitter"`
	Reddit        float64   `json:"reddit"`
	TikTok        float64   `json:"tiktok"`
	Aggregated    float64   `json:"aggregatedScore"`
	Sources       []Source  `json:"source"`
	FailedSources []Source  `json:"failedSources"`
	ComputedAt    time.Time `json:"computedAt"`
	FromCache     bool      `json:"fromCache"`
}

// ScoreFor returns the per-source value stored on the aggregate.
func (a AggregatedScore) ScoreFor(s Source) float64 {
	switch s {
	case SourceGoogle:
		return a.Google
	case SourceTwitter:
		return a.Twitter
	case SourceReddit:
		return a.Reddit
	case SourceTikTok:
		return a.TikTok
	}
	return 0
}

// CacheEntry is the persisted per-product trend snapshot.
type CacheEntry struct {
	ProductID     string    `json:"productId"`
	Keyword       string    `json:"keyword"`
	Google        float64   `json:"googleTrendScore"`
	Twitter       float64   `json:"twitterScore"`
	Reddit        float64   `json:"redditScore"`
	TikTok        float64   `json:"tiktokScore"`
	Sources       []string  `json:"source"`
	FailedSources []string  `json:"failedSources"`
	LastUpdated   time.Time `json:"lastUpdated"`
	NextUpdateAt  time.Time `json:"nextUpdateAt"`
	ErrorCount    int       `json:"errorCount"`
	LastError     *string   `json:"lastError,omitempty"`
}

// RateLimitSource is the persisted quota and health record for one source.
type RateLimitSource struct {
	Name              Source    `json:"name"`
	Enabled           bool      `json:"enabled"`
	DailyLimit        int       `json:"dailyLimit"`
	DailyUsed         int       `json:"dailyUsed"`
	RequestsPerMinute int       `json:"requestsPerMinute"`
	CacheTTLHours     int       `json:"cacheTTLHours"`
	Status            Status    `json:"status"`
	ErrorMessage      *string   `json:"errorMessage,omitempty"`
	LastSyncAt        time.Time `json:"lastSyncAt"`
}
