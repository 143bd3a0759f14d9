// internal/service/source/google.go

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"trendrank/internal/domain/trend"
)

// GoogleConfig contains configuration for the Google Trends adapter
type GoogleConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	MinSpacing     time.Duration
}

// GoogleAdapter queries Google Trends interest-over-time for a keyword.
// As the highest-traffic source it serializes its requests and spaces
// them out, so concurrent rankings cannot burst the unofficial API.
type GoogleAdapter struct {
	cfg     GoogleConfig
	client  *http.Client
	neutral float64

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGoogle creates a Google Trends adapter
func NewGoogle(cfg GoogleConfig, neutral float64) *GoogleAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://trends.google.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	return &GoogleAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		neutral: neutral,
	}
}

// Name returns the source this adapter serves
func (a *GoogleAdapter) Name() trend.Source {
	return trend.SourceGoogle
}

// GetScore returns the normalized search interest for a keyword.
// Requests are serialized, spaced by MinSpacing, and retried with
// exponential backoff before degrading to the neutral score.
func (a *GoogleAdapter) GetScore(ctx context.Context, keyword string) trend.Score {
	a.mu.Lock()
	defer a.mu.Unlock()

	if wait := a.cfg.MinSpacing - time.Since(a.lastRequest); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fallback(trend.SourceGoogle, a.neutral, ctx.Err().Error())
		}
	}

	var interest float64
	backoff := retry.NewExponential(a.cfg.RetryBaseDelay)
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(a.cfg.RetryAttempts-1), backoff), func(ctx context.Context) error {
		v, err := a.fetchInterest(ctx, keyword)
		if err != nil {
			return retry.RetryableError(err)
		}
		interest = v
		return nil
	})
	a.lastRequest = time.Now()

	if err != nil {
		log.Printf("google adapter: keyword %q degraded to neutral: %v", keyword, err)
		return fallback(trend.SourceGoogle, a.neutral, err.Error())
	}

	return trend.Score{
		Source:    trend.SourceGoogle,
		Value:     normalize(interest, googleInterestDivisor),
		Raw:       trend.RawMetrics{Engagement: int64(interest)},
		FetchedAt: time.Now(),
	}
}

// exploreResponse is the subset of the explore payload we need: the
// token and request blob of the TIMESERIES widget.
type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

// multilineResponse is the subset of the widgetdata payload we need.
type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// fetchInterest performs the two-step unofficial Trends flow: explore
// to obtain a widget token, then widgetdata/multiline for the
// interest-over-time series. The average of the series (0-100) is
// returned.
func (a *GoogleAdapter) fetchInterest(ctx context.Context, keyword string) (float64, error) {
	exploreReq := map[string]interface{}{
		"comparisonItem": []map[string]interface{}{
			{"keyword": keyword, "geo": "", "time": "today 3-m"},
		},
		"category": 0,
		"property": "",
	}
	reqJSON, err := json.Marshal(exploreReq)
	if err != nil {
		return 0, fmt.Errorf("marshaling explore request: %w", err)
	}

	exploreURL := fmt.Sprintf("%s/trends/api/explore?hl=en-US&tz=0&req=%s",
		a.cfg.BaseURL, url.QueryEscape(string(reqJSON)))

	var explore exploreResponse
	if err := a.getJSON(ctx, exploreURL, &explore); err != nil {
		return 0, fmt.Errorf("explore request: %w", err)
	}

	var token string
	var widgetReq json.RawMessage
	for _, w := range explore.Widgets {
		if w.ID == "TIMESERIES" {
			token = w.Token
			widgetReq = w.Request
			break
		}
	}
	if token == "" {
		return 0, fmt.Errorf("no TIMESERIES widget for keyword %q", keyword)
	}

	dataURL := fmt.Sprintf("%s/trends/api/widgetdata/multiline?hl=en-US&tz=0&req=%s&token=%s",
		a.cfg.BaseURL, url.QueryEscape(string(widgetReq)), url.QueryEscape(token))

	var multiline multilineResponse
	if err := a.getJSON(ctx, dataURL, &multiline); err != nil {
		return 0, fmt.Errorf("widgetdata request: %w", err)
	}

	points := multiline.Default.TimelineData
	if len(points) == 0 {
		return 0, fmt.Errorf("empty timeline for keyword %q", keyword)
	}

	var sum float64
	var count int
	for _, p := range points {
		if len(p.Value) > 0 {
			sum += p.Value[0]
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("timeline without values for keyword %q", keyword)
	}

	return sum / float64(count), nil
}

// getJSON fetches a Trends API URL and decodes the JSON body after
// stripping the XSSI prefix (")]}'," before the actual payload).
func (a *GoogleAdapter) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trends API returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if idx := bytes.IndexAny(body, "{["); idx > 0 {
		body = body[idx:]
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
