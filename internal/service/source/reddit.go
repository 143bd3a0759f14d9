// internal/service/source/reddit.go

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

// RedditConfig contains configuration for the Reddit adapter
type RedditConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// RedditAdapter measures keyword buzz via the public search endpoint:
// combined score and comment counts of the top posts from the past
// week.
type RedditAdapter struct {
	cfg     RedditConfig
	client  *http.Client
	neutral float64
}

// redditSearchResponse represents the structure of the Reddit search response
type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Score       int64 `json:"score"`
				NumComments int64 `json:"num_comments"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewReddit creates a Reddit adapter
func NewReddit(cfg RedditConfig, neutral float64) *RedditAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "trendrank/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RedditAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		neutral: neutral,
	}
}

// Name returns the source this adapter serves
func (a *RedditAdapter) Name() trend.Source {
	return trend.SourceReddit
}

// GetScore returns the normalized engagement for a keyword.
func (a *RedditAdapter) GetScore(ctx context.Context, keyword string) trend.Score {
	engagement, err := a.fetchEngagement(ctx, keyword)
	if err != nil {
		log.Printf("reddit adapter: keyword %q degraded to neutral: %v", keyword, err)
		return fallback(trend.SourceReddit, a.neutral, err.Error())
	}

	return trend.Score{
		Source:    trend.SourceReddit,
		Value:     normalize(float64(engagement), redditEngagementDivisor),
		Raw:       trend.RawMetrics{Engagement: engagement},
		FetchedAt: time.Now(),
	}
}

// fetchEngagement sums score + comments over the top 25 posts matching
// the keyword from the past week.
func (a *RedditAdapter) fetchEngagement(ctx context.Context, keyword string) (int64, error) {
	searchURL := fmt.Sprintf("%s/search.json?q=%s&sort=top&t=week&limit=25",
		a.cfg.BaseURL, url.QueryEscape(keyword))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	// Reddit throttles requests without a descriptive User-Agent
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Reddit API returned status code %d", resp.StatusCode)
	}

	var search redditSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}

	var engagement int64
	for _, child := range search.Data.Children {
		engagement += child.Data.Score + child.Data.NumComments
	}

	return engagement, nil
}
