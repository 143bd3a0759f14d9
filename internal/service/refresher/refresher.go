// internal/service/refresher/refresher.go

package refresher

import (
	"context"
	"log"
	"sync"
	"time"

	"trendrank/internal/domain/trend"
)

// Cache exposes the maintenance surface of the trend cache.
type Cache interface {
	GetNeedingRefresh(ctx context.Context) ([]trend.CacheEntry, error)
	RecordError(ctx context.Context, productID, message string) error
}

// QuotaResetter resets daily source quotas.
type QuotaResetter interface {
	ResetDaily(ctx context.Context) error
}

// Config contains configuration for the background refresher
type Config struct {
	RefreshInterval time.Duration
}

// Refresher runs the system's scheduled maintenance: proactive
// re-aggregation of stale cache entries and the daily quota reset at
// UTC midnight.
type Refresher struct {
	cache      Cache
	aggregator trend.Aggregator
	resetter   QuotaResetter
	config     Config
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a background refresher
func New(cache Cache, aggregator trend.Aggregator, resetter QuotaResetter, config Config) *Refresher {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Refresher{
		cache:      cache,
		aggregator: aggregator,
		resetter:   resetter,
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the maintenance loops
func (r *Refresher) Start(ctx context.Context) error {
	r.wg.Add(1)
	go r.refreshLoop(ctx)

	r.wg.Add(1)
	go r.resetLoop(ctx)

	return nil
}

// Stop gracefully stops the maintenance loops
func (r *Refresher) Stop(ctx context.Context) error {
	r.cancel()

	c := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// refreshLoop periodically re-aggregates entries whose TTL has passed.
func (r *Refresher) refreshLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refreshStale(ctx)
		}
	}
}

// refreshStale re-aggregates every entry past its refresh deadline. A
// refresh that produces no contributing sources is recorded against the
// entry so chronically-failing products can be backed off later.
func (r *Refresher) refreshStale(ctx context.Context) {
	entries, err := r.cache.GetNeedingRefresh(ctx)
	if err != nil {
		log.Printf("refresher: error listing stale entries: %v", err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		result := r.aggregator.GetTrendScores(ctx, entry.ProductID, entry.Keyword)
		if len(result.Sources) == 0 {
			if err := r.cache.RecordError(ctx, entry.ProductID, "refresh produced no contributing sources"); err != nil {
				log.Printf("refresher: error recording failure for product %s: %v", entry.ProductID, err)
			}
		}
	}

	if len(entries) > 0 {
		log.Printf("refresher: refreshed %d stale entries", len(entries))
	}
}

// resetLoop fires the daily quota reset at each UTC midnight.
func (r *Refresher) resetLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		timer := time.NewTimer(untilNextMidnightUTC(time.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := r.resetter.ResetDaily(ctx); err != nil {
				log.Printf("refresher: daily quota reset failed: %v", err)
			}
		}
	}
}

// untilNextMidnightUTC returns the duration until the next UTC day
// boundary.
func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now)
}
