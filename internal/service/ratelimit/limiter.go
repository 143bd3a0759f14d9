// internal/service/ratelimit/limiter.go

package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"trendrank/internal/domain/trend"
)

// Store defines persistence for per-source quota records
type Store interface {
	Get(ctx context.Context, name trend.Source) (*trend.RateLimitSource, error)
	List(ctx context.Context) ([]trend.RateLimitSource, error)
	Seed(ctx context.Context, r trend.RateLimitSource) error
	IncrementUsage(ctx context.Context, name trend.Source) error
	ResetDaily(ctx context.Context) error
	SetStatus(ctx context.Context, name trend.Source, status trend.Status, message *string) error
}

// Limiter gates requests to external sources against daily quotas and
// per-source health state. All storage failures deny the request: the
// limiter would rather skip a source than exceed an external quota.
type Limiter struct {
	store    Store
	defaults []trend.RateLimitSource
}

// NewLimiter creates a new rate limiter
func NewLimiter(store Store, defaults []trend.RateLimitSource) *Limiter {
	return &Limiter{
		store:    store,
		defaults: defaults,
	}
}

// CanMakeRequest reports whether a request to the source may be
// attempted right now. A missing record or a storage failure yields
// false, never permission.
func (l *Limiter) CanMakeRequest(ctx context.Context, source trend.Source) bool {
	record, err := l.store.Get(ctx, source)
	if err != nil {
		log.Printf("rate limiter: error reading source %s, denying request: %v", source, err)
		return false
	}
	if record == nil {
		log.Printf("rate limiter: no record for source %s, denying request", source)
		return false
	}

	if !record.Enabled {
		return false
	}
	if record.Status == trend.StatusError {
		return false
	}
	return record.DailyUsed < record.DailyLimit
}

// RecordRequest counts one request against the source's daily quota.
func (l *Limiter) RecordRequest(ctx context.Context, source trend.Source) error {
	if err := l.store.IncrementUsage(ctx, source); err != nil {
		return fmt.Errorf("recording request for %s: %w", source, err)
	}
	return nil
}

// ResetDaily zeroes the daily counters for all sources. Intended to run
// once per 24h.
func (l *Limiter) ResetDaily(ctx context.Context) error {
	if err := l.store.ResetDaily(ctx); err != nil {
		return fmt.Errorf("resetting daily usage: %w", err)
	}
	log.Printf("rate limiter: daily usage counters reset")
	return nil
}

// UpdateSourceStatus transitions a source's health state, recording the
// triggering message so operators can see why a source was sidelined.
func (l *Limiter) UpdateSourceStatus(ctx context.Context, source trend.Source, status trend.Status, message string) error {
	var msg *string
	if message != "" {
		msg = &message
	}
	if err := l.store.SetStatus(ctx, source, status, msg); err != nil {
		return fmt.Errorf("updating status for %s: %w", source, err)
	}
	log.Printf("rate limiter: source %s status -> %s", source, status)
	return nil
}

// InitializeSources idempotently seeds quota records for all known
// sources. Existing records are never overwritten, so operator changes
// to limits or enablement survive restarts.
func (l *Limiter) InitializeSources(ctx context.Context) error {
	for _, d := range l.defaults {
		if d.LastSyncAt.IsZero() {
			d.LastSyncAt = time.Now()
		}
		if d.Status == "" {
			d.Status = trend.StatusActive
		}
		if err := l.store.Seed(ctx, d); err != nil {
			return fmt.Errorf("initializing source %s: %w", d.Name, err)
		}
	}
	return nil
}

// ListSources returns the current quota and health state of all sources
func (l *Limiter) ListSources(ctx context.Context) ([]trend.RateLimitSource, error) {
	sources, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}
