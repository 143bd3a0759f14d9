// internal/service/trendcache/cache.go

package trendcache

import (
	"context"
	"fmt"
	"log"
	"time"

	"trendrank/internal/domain/trend"
)

// Store defines persistence for trend cache entries
type Store interface {
	Get(ctx context.Context, productID string) (*trend.CacheEntry, error)
	Upsert(ctx context.Context, e trend.CacheEntry) error
	Delete(ctx context.Context, productID string) error
	ListExpired(ctx context.Context) ([]trend.CacheEntry, error)
	RecordError(ctx context.Context, productID, message string) error
}

// Config contains configuration for the trend cache
type Config struct {
	TTL time.Duration
}

// Cache stores the last computed per-source scores for each product
// with a time-based staleness policy. Staleness is detected by
// comparing next_update_at against now; entries are never removed
// automatically.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewCache creates a new trend cache
func NewCache(store Store, cfg Config) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Cache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the entry for a product if it exists and is still fresh.
// Stale entries and storage failures both behave as a miss: a broken
// cache must never fail a ranking.
func (c *Cache) Get(ctx context.Context, productID string) *trend.CacheEntry {
	entry, err := c.store.Get(ctx, productID)
	if err != nil {
		log.Printf("trend cache: read error for product %s, treating as miss: %v", productID, err)
		return nil
	}
	if entry == nil {
		return nil
	}
	if !c.IsValid(entry.NextUpdateAt) {
		return nil
	}
	return entry
}

// Set upserts the entry for a product, stamping last_updated with the
// current time and next_update_at with now + TTL. Error tracking fields
// are reset: a successful refresh clears the failure history.
func (c *Cache) Set(ctx context.Context, productID, keyword string, score trend.AggregatedScore) error {
	now := c.now()

	sources := make([]string, 0, len(score.Sources))
	for _, s := range score.Sources {
		sources = append(sources, string(s))
	}
	failed := make([]string, 0, len(score.FailedSources))
	for _, s := range score.FailedSources {
		failed = append(failed, string(s))
	}

	entry := trend.CacheEntry{
		ProductID:     productID,
		Keyword:       keyword,
		Google:        score.Google,
		Twitter:       score.Twitter,
		Reddit:        score.Reddit,
		TikTok:        score.TikTok,
		Sources:       sources,
		FailedSources: failed,
		LastUpdated:   now,
		NextUpdateAt:  now.Add(c.ttl),
		ErrorCount:    0,
		LastError:     nil,
	}

	if err := c.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("writing trend cache entry for %s: %w", productID, err)
	}
	return nil
}

// Delete hard-removes a product's entry. Used for manual invalidation,
// not on the hot path.
func (c *Cache) Delete(ctx context.Context, productID string) error {
	return c.store.Delete(ctx, productID)
}

// IsValid reports whether an entry with the given next_update_at is
// still fresh. This comparison is the sole staleness test.
func (c *Cache) IsValid(nextUpdateAt time.Time) bool {
	return nextUpdateAt.After(c.now())
}

// GetNeedingRefresh returns all entries whose refresh deadline has
// passed, for proactive background refresh.
func (c *Cache) GetNeedingRefresh(ctx context.Context) ([]trend.CacheEntry, error) {
	entries, err := c.store.ListExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries needing refresh: %w", err)
	}
	return entries, nil
}

// RecordError notes a failed refresh attempt against the entry without
// touching the stored scores.
func (c *Cache) RecordError(ctx context.Context, productID, message string) error {
	if err := c.store.RecordError(ctx, productID, message); err != nil {
		return fmt.Errorf("recording cache error for %s: %w", productID, err)
	}
	return nil
}
