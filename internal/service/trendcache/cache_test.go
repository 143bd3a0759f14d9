package trendcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"trendrank/internal/domain/trend"
)

// fakeStore is an in-memory Store for cache tests.
type fakeStore struct {
	entries    map[string]*trend.CacheEntry
	getErr     error
	upsertErr  error
	upserts    int
	lastUpsert trend.CacheEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*trend.CacheEntry)}
}

func (f *fakeStore) Get(_ context.Context, productID string) (*trend.CacheEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.entries[productID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeStore) Upsert(_ context.Context, e trend.CacheEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	f.lastUpsert = e
	copied := e
	f.entries[e.ProductID] = &copied
	return nil
}

func (f *fakeStore) Delete(_ context.Context, productID string) error {
	delete(f.entries, productID)
	return nil
}

func (f *fakeStore) ListExpired(_ context.Context) ([]trend.CacheEntry, error) {
	var out []trend.CacheEntry
	now := time.Now()
	for _, e := range f.entries {
		if !e.NextUpdateAt.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) RecordError(_ context.Context, productID, message string) error {
	e, ok := f.entries[productID]
	if !ok {
		return errors.New("entry not found")
	}
	e.ErrorCount++
	e.LastError = &message
	return nil
}

func newTestCache(store *fakeStore, ttl time.Duration, now time.Time) *Cache {
	c := NewCache(store, Config{TTL: ttl})
	c.now = func() time.Time { return now }
	return c
}

func sampleScore() trend.AggregatedScore {
	return trend.AggregatedScore{
		Google:        0.8,
		Twitter:       0.6,
		Reddit:        0.5,
		TikTok:        0.2,
		Sources:       []trend.Source{trend.SourceGoogle, trend.SourceTwitter, trend.SourceTikTok},
		FailedSources: []trend.Source{trend.SourceReddit},
	}
}

func TestSetThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	if err := cache.Set(ctx, "prod-1", "wireless earbuds", sampleScore()); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := cache.Get(ctx, "prod-1")
	if got == nil {
		t.Fatal("expected cache hit")
	}

	want := trend.CacheEntry{
		ProductID:     "prod-1",
		Keyword:       "wireless earbuds",
		Google:        0.8,
		Twitter:       0.6,
		Reddit:        0.5,
		TikTok:        0.2,
		Sources:       []string{"google", "twitter", "tiktok"},
		FailedSources: []string{"reddit"},
		LastUpdated:   now,
		NextUpdateAt:  now.Add(12 * time.Hour),
	}

	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestSetEnforcesTTLInvariant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	if err := cache.Set(ctx, "prod-1", "kw", sampleScore()); err != nil {
		t.Fatalf("set: %v", err)
	}

	e := store.lastUpsert
	if !e.NextUpdateAt.After(e.LastUpdated) {
		t.Errorf("next_update_at %v must be after last_updated %v", e.NextUpdateAt, e.LastUpdated)
	}
	if e.ErrorCount != 0 || e.LastError != nil {
		t.Error("set should reset error tracking fields")
	}
}

func TestStaleEntryBehavesAsMiss(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	store.entries["prod-1"] = &trend.CacheEntry{
		ProductID:    "prod-1",
		NextUpdateAt: now.Add(-1 * time.Minute),
	}

	if cache.IsValid(now.Add(-1 * time.Minute)) {
		t.Error("IsValid should be false for a past deadline")
	}
	if got := cache.Get(ctx, "prod-1"); got != nil {
		t.Errorf("stale entry should be a miss, got %+v", got)
	}
}

func TestIsValidBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	cache := newTestCache(newFakeStore(), 12*time.Hour, now)

	if cache.IsValid(now) {
		t.Error("deadline exactly at now should be stale")
	}
	if !cache.IsValid(now.Add(time.Nanosecond)) {
		t.Error("deadline just past now should be valid")
	}
}

func TestGetStorageErrorIsAMiss(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	cache := newTestCache(store, 12*time.Hour, now)

	if got := cache.Get(ctx, "prod-1"); got != nil {
		t.Errorf("storage error should behave as a miss, got %+v", got)
	}
}

func TestRecordErrorKeepsScores(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	if err := cache.Set(ctx, "prod-1", "kw", sampleScore()); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := cache.RecordError(ctx, "prod-1", "all sources failed"); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := cache.RecordError(ctx, "prod-1", "still failing"); err != nil {
		t.Fatalf("record error: %v", err)
	}

	e := store.entries["prod-1"]
	if e.ErrorCount != 2 {
		t.Errorf("error count = %d, want 2", e.ErrorCount)
	}
	if e.LastError == nil || *e.LastError != "still failing" {
		t.Errorf("last error = %v, want %q", e.LastError, "still failing")
	}
	if e.Google != 0.8 {
		t.Errorf("recording an error must not touch score fields, google = %v", e.Google)
	}
}

func TestGetNeedingRefresh(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	store.entries["fresh"] = &trend.CacheEntry{ProductID: "fresh", NextUpdateAt: now.Add(time.Hour)}
	store.entries["stale"] = &trend.CacheEntry{ProductID: "stale", NextUpdateAt: now.Add(-time.Hour)}

	entries, err := cache.GetNeedingRefresh(ctx)
	if err != nil {
		t.Fatalf("get needing refresh: %v", err)
	}
	if len(entries) != 1 || entries[0].ProductID != "stale" {
		t.Errorf("expected only the stale entry, got %+v", entries)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newFakeStore()
	cache := newTestCache(store, 12*time.Hour, now)

	if err := cache.Set(ctx, "prod-1", "kw", sampleScore()); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Delete(ctx, "prod-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := cache.Get(ctx, "prod-1"); got != nil {
		t.Error("deleted entry should be a miss")
	}
}
