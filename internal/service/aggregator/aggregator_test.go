package aggregator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"trendrank/internal/domain/trend"
)

// fakeCache is an in-memory Cache for aggregator tests.
type fakeCache struct {
	entries map[string]*trend.CacheEntry
	setErr  error
	sets    int
	ttl     time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*trend.CacheEntry), ttl: 12 * time.Hour}
}

func (f *fakeCache) Get(_ context.Context, productID string) *trend.CacheEntry {
	return f.entries[productID]
}

func (f *fakeCache) Set(_ context.Context, productID, keyword string, score trend.AggregatedScore) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	sources := make([]string, 0, len(score.Sources))
	for _, s := range score.Sources {
		sources = append(sources, string(s))
	}
	failed := make([]string, 0, len(score.FailedSources))
	for _, s := range score.FailedSources {
		failed = append(failed, string(s))
	}
	now := time.Now()
	f.entries[productID] = &trend.CacheEntry{
		ProductID:     productID,
		Keyword:       keyword,
		Google:        score.Google,
		Twitter:       score.Twitter,
		Reddit:        score.Reddit,
		TikTok:        score.TikTok,
		Sources:       sources,
		FailedSources: failed,
		LastUpdated:   now,
		NextUpdateAt:  now.Add(f.ttl),
	}
	return nil
}

// fakeLimiter allows or denies per source and records accounting calls.
type fakeLimiter struct {
	denied   map[trend.Source]bool
	recorded []trend.Source
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{denied: make(map[trend.Source]bool)}
}

func (f *fakeLimiter) CanMakeRequest(_ context.Context, s trend.Source) bool {
	return !f.denied[s]
}

func (f *fakeLimiter) RecordRequest(_ context.Context, s trend.Source) error {
	f.recorded = append(f.recorded, s)
	return nil
}

// fakeAdapter returns a fixed score and counts invocations.
type fakeAdapter struct {
	name     trend.Source
	value    float64
	fallback bool
	calls    int
}

func (f *fakeAdapter) Name() trend.Source { return f.name }

func (f *fakeAdapter) GetScore(_ context.Context, _ string) trend.Score {
	f.calls++
	return trend.Score{
		Source:    f.name,
		Value:     f.value,
		FetchedAt: time.Now(),
		Fallback:  f.fallback,
	}
}

func testAdapters(values map[trend.Source]float64) map[trend.Source]trend.Adapter {
	adapters := make(map[trend.Source]trend.Adapter)
	for _, s := range trend.Sources() {
		v, ok := values[s]
		if !ok {
			v = 0.5
		}
		adapters[s] = &fakeAdapter{name: s, value: v}
	}
	return adapters
}

func adapterCalls(adapters map[trend.Source]trend.Adapter) int {
	total := 0
	for _, a := range adapters {
		total += a.(*fakeAdapter).calls
	}
	return total
}

func newTestAggregator(t *testing.T, cache Cache, limiter trend.Limiter, adapters map[trend.Source]trend.Adapter) *Aggregator {
	t.Helper()
	agg, err := New(cache, limiter, adapters, nil, Config{
		Weights:       trend.DefaultWeights(),
		NeutralScore:  0.5,
		FanoutTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return agg
}

func TestNewRequiresAllAdapters(t *testing.T) {
	adapters := testAdapters(nil)
	delete(adapters, trend.SourceTikTok)

	_, err := New(newFakeCache(), newFakeLimiter(), adapters, nil, Config{
		Weights:      trend.DefaultWeights(),
		NeutralScore: 0.5,
	})
	if err == nil {
		t.Fatal("expected error for missing adapter")
	}
}

func TestWeightedAggregation(t *testing.T) {
	adapters := testAdapters(map[trend.Source]float64{
		trend.SourceGoogle:  0.8,
		trend.SourceTwitter: 0.6,
		trend.SourceReddit:  0.4,
		trend.SourceTikTok:  0.2,
	})
	agg := newTestAggregator(t, newFakeCache(), newFakeLimiter(), adapters)

	result := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	if math.Abs(result.Aggregated-0.53) > 1e-9 {
		t.Errorf("aggregated = %v, want 0.53", result.Aggregated)
	}
	if diff := cmp.Diff(trend.Sources(), result.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(result.FailedSources) != 0 {
		t.Errorf("failed sources = %v, want none", result.FailedSources)
	}
}

func TestPartialFailureUsesNeutralForFailedSource(t *testing.T) {
	adapters := testAdapters(map[trend.Source]float64{
		trend.SourceGoogle:  0.8,
		trend.SourceTwitter: 0.6,
		trend.SourceTikTok:  0.2,
	})
	// Reddit degrades to its neutral fallback
	adapters[trend.SourceReddit] = &fakeAdapter{name: trend.SourceReddit, value: 0.5, fallback: true}

	agg := newTestAggregator(t, newFakeCache(), newFakeLimiter(), adapters)
	result := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	wantFailed := []trend.Source{trend.SourceReddit}
	if diff := cmp.Diff(wantFailed, result.FailedSources); diff != "" {
		t.Errorf("failed sources mismatch (-want +got):\n%s", diff)
	}

	wantSources := []trend.Source{trend.SourceGoogle, trend.SourceTwitter, trend.SourceTikTok}
	if diff := cmp.Diff(wantSources, result.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	want := 0.8*0.30 + 0.6*0.25 + 0.5*0.25 + 0.2*0.20
	if math.Abs(result.Aggregated-want) > 1e-9 {
		t.Errorf("aggregated = %v, want %v", result.Aggregated, want)
	}
}

func TestTotalDenialYieldsNeutralAggregate(t *testing.T) {
	adapters := testAdapters(nil)
	limiter := newFakeLimiter()
	for _, s := range trend.Sources() {
		limiter.denied[s] = true
	}

	agg := newTestAggregator(t, newFakeCache(), limiter, adapters)
	result := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	for _, s := range trend.Sources() {
		if got := result.ScoreFor(s); got != 0.5 {
			t.Errorf("score for %s = %v, want 0.5", s, got)
		}
	}
	if math.Abs(result.Aggregated-0.5) > 1e-9 {
		t.Errorf("aggregated = %v, want 0.5", result.Aggregated)
	}
	if len(result.Sources) != 0 {
		t.Errorf("sources = %v, want none", result.Sources)
	}
	if len(result.FailedSources) != 4 {
		t.Errorf("failed sources = %v, want all four", result.FailedSources)
	}
	if got := adapterCalls(adapters); got != 0 {
		t.Errorf("denied sources must not be queried, got %d adapter calls", got)
	}
	if len(limiter.recorded) != 0 {
		t.Errorf("denied sources must not consume quota, recorded %v", limiter.recorded)
	}
}

func TestSecondCallWithinTTLIsAPureCacheHit(t *testing.T) {
	adapters := testAdapters(map[trend.Source]float64{
		trend.SourceGoogle:  0.8,
		trend.SourceTwitter: 0.6,
		trend.SourceReddit:  0.4,
		trend.SourceTikTok:  0.2,
	})
	cache := newFakeCache()
	agg := newTestAggregator(t, cache, newFakeLimiter(), adapters)

	first := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")
	if first.FromCache {
		t.Fatal("first call should not be served from cache")
	}
	if got := adapterCalls(adapters); got != 4 {
		t.Fatalf("first call should query all four sources, got %d", got)
	}

	second := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")
	if !second.FromCache {
		t.Fatal("second call should be served from cache")
	}
	if got := adapterCalls(adapters); got != 4 {
		t.Errorf("second call issued %d extra adapter calls, want 0", got-4)
	}
	if math.Abs(second.Aggregated-first.Aggregated) > 1e-9 {
		t.Errorf("cached aggregate = %v, want %v", second.Aggregated, first.Aggregated)
	}
	if diff := cmp.Diff(first.Sources, second.Sources); diff != "" {
		t.Errorf("cached sources mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheHitRecomputesWithSameWeights(t *testing.T) {
	cache := newFakeCache()
	cache.entries["prod-1"] = &trend.CacheEntry{
		ProductID:    "prod-1",
		Keyword:      "earbuds",
		Google:       0.8,
		Twitter:      0.6,
		Reddit:       0.4,
		TikTok:       0.2,
		Sources:      []string{"google", "twitter", "reddit", "tiktok"},
		LastUpdated:  time.Now(),
		NextUpdateAt: time.Now().Add(time.Hour),
	}
	adapters := testAdapters(nil)

	agg := newTestAggregator(t, cache, newFakeLimiter(), adapters)
	result := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	if !result.FromCache {
		t.Fatal("expected cache hit")
	}
	if math.Abs(result.Aggregated-0.53) > 1e-9 {
		t.Errorf("aggregated = %v, want 0.53", result.Aggregated)
	}
	if got := adapterCalls(adapters); got != 0 {
		t.Errorf("cache hit must not query adapters, got %d calls", got)
	}
}

func TestWriteThroughPersistsResult(t *testing.T) {
	adapters := testAdapters(map[trend.Source]float64{trend.SourceGoogle: 0.9})
	cache := newFakeCache()
	agg := newTestAggregator(t, cache, newFakeLimiter(), adapters)

	agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}
	entry := cache.entries["prod-1"]
	if entry == nil {
		t.Fatal("expected cache entry after write-through")
	}
	if entry.Google != 0.9 {
		t.Errorf("persisted google score = %v, want 0.9", entry.Google)
	}
	if entry.Keyword != "earbuds" {
		t.Errorf("persisted keyword = %q, want %q", entry.Keyword, "earbuds")
	}
}

func TestCacheWriteFailureDoesNotFailAggregation(t *testing.T) {
	adapters := testAdapters(nil)
	cache := newFakeCache()
	cache.setErr = context.DeadlineExceeded

	agg := newTestAggregator(t, cache, newFakeLimiter(), adapters)
	result := agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	if len(result.Sources) != 4 {
		t.Errorf("aggregation should succeed despite cache write failure, sources = %v", result.Sources)
	}
}

func TestQuotaConsumedEvenWhenAdapterDegrades(t *testing.T) {
	adapters := testAdapters(nil)
	adapters[trend.SourceGoogle] = &fakeAdapter{name: trend.SourceGoogle, value: 0.5, fallback: true}
	limiter := newFakeLimiter()

	agg := newTestAggregator(t, newFakeCache(), limiter, adapters)
	agg.GetTrendScores(context.Background(), "prod-1", "earbuds")

	if len(limiter.recorded) != 4 {
		t.Errorf("all attempted requests consume quota, recorded %d of 4", len(limiter.recorded))
	}
}
