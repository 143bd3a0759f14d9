// internal/service/source/twitter.go

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"trendrank/internal/domain/trend"
)

// TwitterConfig contains configuration for the Twitter adapter
type TwitterConfig struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

// TwitterAdapter measures keyword buzz via the recent tweet counts
// endpoint (tweets matching the keyword over the past 7 days).
type TwitterAdapter struct {
	cfg     TwitterConfig
	client  *http.Client
	neutral float64
}

// twitterCountsResponse represents the response from the tweet counts endpoint
type twitterCountsResponse struct {
	Meta struct {
		TotalTweetCount int64 `json:"total_tweet_count"`
	} `json:"meta"`
}

// NewTwitter creates a Twitter adapter
func NewTwitter(cfg TwitterConfig, neutral float64) *TwitterAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twitter.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwitterAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		neutral: neutral,
	}
}

// Name returns the source this adapter serves
func (a *TwitterAdapter) Name() trend.Source {
	return trend.SourceTwitter
}

// GetScore returns the normalized mention volume for a keyword.
func (a *TwitterAdapter) GetScore(ctx context.Context, keyword string) trend.Score {
	mentions, err := a.fetchMentionCount(ctx, keyword)
	if err != nil {
		log.Printf("twitter adapter: keyword %q degraded to neutral: %v", keyword, err)
		return fallback(trend.SourceTwitter, a.neutral, err.Error())
	}

	return trend.Score{
		Source:    trend.SourceTwitter,
		Value:     normalize(float64(mentions), twitterMentionDivisor),
		Raw:       trend.RawMetrics{Mentions: mentions},
		FetchedAt: time.Now(),
	}
}

// fetchMentionCount queries the recent tweet counts endpoint for the
// total number of tweets mentioning the keyword in the past week.
func (a *TwitterAdapter) fetchMentionCount(ctx context.Context, keyword string) (int64, error) {
	query := fmt.Sprintf("%q -is:retweet", keyword)
	countsURL := fmt.Sprintf("%s/2/tweets/counts/recent?query=%s&granularity=day",
		a.cfg.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, countsURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Twitter API returned status code %d", resp.StatusCode)
	}

	var counts twitterCountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}

	return counts.Meta.TotalTweetCount, nil
}
