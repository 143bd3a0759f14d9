// internal/service/aggregator/aggregator.go

package aggregator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"trendrank/internal/domain/trend"
)

// Cache is the staleness-aware store the aggregator reads through.
type Cache interface {
	Get(ctx context.Context, productID string) *trend.CacheEntry
	Set(ctx context.Context, productID, keyword string, score trend.AggregatedScore) error
}

// Config contains configuration for the trend aggregator
type Config struct {
	Weights       trend.Weights
	NeutralScore  float64
	FanoutTimeout time.Duration
	EventsTopic   string
}

// Aggregator orchestrates cache lookup, concurrent fan-out across the
// source adapters gated by the rate limiter, weighted combination, and
// cache write-through. Every failure mode degrades locally: callers
// always get a usable AggregatedScore.
type Aggregator struct {
	cache    Cache
	limiter  trend.Limiter
	adapters map[trend.Source]trend.Adapter
	config   Config
	eventBus *nats.Conn
}

// New creates a trend aggregator. An adapter must exist for every known
// source; a missing one is a configuration error that fails here rather
// than per-request.
func New(
	cache Cache,
	limiter trend.Limiter,
	adapters map[trend.Source]trend.Adapter,
	eventBus *nats.Conn,
	config Config,
) (*Aggregator, error) {
	if err := config.Weights.Validate(); err != nil {
		return nil, err
	}
	for _, s := range trend.Sources() {
		if adapters[s] == nil {
			return nil, fmt.Errorf("no adapter configured for source %s", s)
		}
	}
	if config.FanoutTimeout <= 0 {
		config.FanoutTimeout = 30 * time.Second
	}
	if config.EventsTopic == "" {
		config.EventsTopic = "trend"
	}

	return &Aggregator{
		cache:    cache,
		limiter:  limiter,
		adapters: adapters,
		config:   config,
		eventBus: eventBus,
	}, nil
}

// GetTrendScores returns the aggregated trend score for a product. A
// valid cache entry is served without any adapter calls; otherwise all
// four sources are queried concurrently and the result written through.
func (a *Aggregator) GetTrendScores(ctx context.Context, productID, keyword string) trend.AggregatedScore {
	if entry := a.cache.Get(ctx, productID); entry != nil {
		return a.fromEntry(entry)
	}

	scores := a.fanOut(ctx, keyword)
	result := a.combine(productID, keyword, scores)

	if len(result.Sources) == 0 {
		log.Printf("trend aggregator: total source outage for product %s (keyword %q), returning neutral aggregate", productID, keyword)
		a.publish(topicOutage, newScoreEvent(result))
	}

	if err := a.cache.Set(ctx, productID, keyword, result); err != nil {
		log.Printf("trend aggregator: cache write failed for product %s: %v", productID, err)
	}

	a.publish(topicRefreshed, newScoreEvent(result))

	return result
}

// fanOut queries all sources concurrently and waits for every branch to
// settle. No branch can abort the others: a slow or failing source only
// affects its own slot.
func (a *Aggregator) fanOut(ctx context.Context, keyword string) []trend.Score {
	ctx, cancel := context.WithTimeout(ctx, a.config.FanoutTimeout)
	defer cancel()

	sources := trend.Sources()
	scores := make([]trend.Score, len(sources))

	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s trend.Source) {
			defer wg.Done()
			scores[i] = a.querySource(ctx, s, keyword)
		}(i, s)
	}
	wg.Wait()

	return scores
}

// querySource runs one fan-out branch: rate-limit gate, adapter call,
// request accounting.
func (a *Aggregator) querySource(ctx context.Context, s trend.Source, keyword string) trend.Score {
	if !a.limiter.CanMakeRequest(ctx, s) {
		return trend.Score{
			Source:    s,
			Value:     a.config.NeutralScore,
			FetchedAt: time.Now(),
			Fallback:  true,
			Cause:     "rate limited or disabled",
		}
	}

	score := a.adapters[s].GetScore(ctx, keyword)

	// The attempt consumed quota whether or not it produced data.
	if err := a.limiter.RecordRequest(ctx, s); err != nil {
		log.Printf("trend aggregator: failed to record request for %s: %v", s, err)
	}

	return score
}

// combine folds the settled per-source scores into one weighted result.
func (a *Aggregator) combine(productID, keyword string, scores []trend.Score) trend.AggregatedScore {
	result := trend.AggregatedScore{
		ProductID:     productID,
		Keyword:       keyword,
		Sources:       []trend.Source{},
		FailedSources: []trend.Source{},
		ComputedAt:    time.Now(),
	}

	for _, sc := range scores {
		switch sc.Source {
		case trend.SourceGoogle:
			result.Google = sc.Value
		case trend.SourceTwitter:
			result.Twitter = sc.Value
		case trend.SourceReddit:
			result.Reddit = sc.Value
		case trend.SourceTikTok:
			result.TikTok = sc.Value
		}

		if sc.Fallback {
			result.FailedSources = append(result.FailedSources, sc.Source)
		} else {
			result.Sources = append(result.Sources, sc.Source)
		}
	}

	result.Aggregated = a.config.Weights.Combine(result.Google, result.Twitter, result.Reddit, result.TikTok)

	return result
}

// fromEntry reconstructs an AggregatedScore from a cached entry using
// the same weighting formula as a fresh computation.
func (a *Aggregator) fromEntry(entry *trend.CacheEntry) trend.AggregatedScore {
	sources := make([]trend.Source, 0, len(entry.Sources))
	for _, s := range entry.Sources {
		sources = append(sources, trend.Source(s))
	}
	failed := make([]trend.Source, 0, len(entry.FailedSources))
	for _, s := range entry.FailedSources {
		failed = append(failed, trend.Source(s))
	}

	return trend.AggregatedScore{
		ProductID:     entry.ProductID,
		Keyword:       entry.Keyword,
		Google:        entry.Google,
		Twitter:       entry.Twitter,
		Reddit:        entry.Reddit,
		TikTok:        entry.TikTok,
		Aggregated:    a.config.Weights.Combine(entry.Google, entry.Twitter, entry.Reddit, entry.TikTok),
		Sources:       sources,
		FailedSources: failed,
		ComputedAt:    entry.LastUpdated,
		FromCache:     true,
	}
}
