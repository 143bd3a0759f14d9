// internal/service/source/tiktok.go

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendrank/internal/domain/trend"
)

// TikTokConfig contains configuration for the TikTok adapter
type TikTokConfig struct {
	BaseURL string
	Timeout time.Duration
}

// TikTokAdapter measures short-video momentum via hashtag challenge
// stats: total views of the hashtag derived from the keyword.
type TikTokAdapter struct {
	cfg     TikTokConfig
	client  *http.Client
	neutral float64
}

// tiktokChallengeResponse represents the challenge detail response
type tiktokChallengeResponse struct {
	ChallengeInfo struct {
		Stats struct {
			ViewCount  int64 `json:"viewCount"`
			VideoCount int64 `json:"videoCount"`
		} `json:"stats"`
	} `json:"challengeInfo"`
}

// NewTikTok creates a TikTok adapter
func NewTikTok(cfg TikTokConfig, neutral float64) *TikTokAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.tiktok.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TikTokAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		neutral: neutral,
	}
}

// Name returns the source this adapter serves
func (a *TikTokAdapter) Name() trend.Source {
	return trend.SourceTikTok
}

// GetScore returns the normalized hashtag view volume for a keyword.
func (a *TikTokAdapter) GetScore(ctx context.Context, keyword string) trend.Score {
	views, err := a.fetchHashtagViews(ctx, keyword)
	if err != nil {
		log.Printf("tiktok adapter: keyword %q degraded to neutral: %v", keyword, err)
		return fallback(trend.SourceTikTok, a.neutral, err.Error())
	}

	return trend.Score{
		Source:    trend.SourceTikTok,
		Value:     normalize(float64(views), tiktokViewDivisor),
		Raw:       trend.RawMetrics{Views: views},
		FetchedAt: time.Now(),
	}
}

// hashtagFor collapses a keyword into hashtag form: lowercased with
// spaces and '#' removed.
func hashtagFor(keyword string) string {
	tag := strings.ToLower(keyword)
	tag = strings.ReplaceAll(tag, "#", "")
	tag = strings.ReplaceAll(tag, " ", "")
	return tag
}

// fetchHashtagViews queries the challenge detail endpoint for the
// hashtag's total view count.
func (a *TikTokAdapter) fetchHashtagViews(ctx context.Context, keyword string) (int64, error) {
	tag := hashtagFor(keyword)
	if tag == "" {
		return 0, fmt.Errorf("keyword %q produced empty hashtag", keyword)
	}

	detailURL := fmt.Sprintf("%s/api/challenge/detail/?challengeName=%s",
		a.cfg.BaseURL, url.QueryEscape(tag))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("TikTok API returned status code %d", resp.StatusCode)
	}

	var detail tiktokChallengeResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}

	return detail.ChallengeInfo.Stats.ViewCount, nil
}
