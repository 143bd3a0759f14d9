// internal/adapter/storage/trend_cache_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trendrank/internal/domain/trend"
)

// TrendCacheStore implements persistence for per-product trend snapshots
type TrendCacheStore struct {
	db *pgxpool.Pool
}

// NewTrendCacheStore creates a new trend cache store
func NewTrendCacheStore(db *pgxpool.Pool) *TrendCacheStore {
	return &TrendCacheStore{
		db: db,
	}
}

// Upsert writes a cache entry as a single atomic insert-or-update, so
// concurrent readers see either the previous entry or the new one.
func (s *TrendCacheStore) Upsert(ctx context.Context, e trend.CacheEntry) error {
	query := `
		INSERT INTO trend_cache (
			product_id, keyword,
			google_trend_score, twitter_score, reddit_score, tiktok_score,
			source, failed_sources,
			last_updated, next_update_at, error_count, last_error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (product_id) DO UPDATE
		SET
			keyword = $2,
			google_trend_score = $3,
			twitter_score = $4,
			reddit_score = $5,
			tiktok_score = $6,
			source = $7,
			failed_sources = $8,
			last_updated = $9,
			next_update_at = $10,
			error_count = $11,
			last_error = $12
	`

	_, err := s.db.Exec(
		ctx,
		query,
		e.ProductID,
		e.Keyword,
		e.Google,
		e.Twitter,
		e.Reddit,
		e.TikTok,
		e.Sources,
		e.FailedSources,
		e.LastUpdated,
		e.NextUpdateAt,
		e.ErrorCount,
		e.LastError,
	)
	if err != nil {
		return fmt.Errorf("error upserting trend cache entry: %w", err)
	}

	return nil
}

// Get retrieves a cache entry by product ID. A missing entry returns
// (nil, nil), not an error.
func (s *TrendCacheStore) Get(ctx context.Context, productID string) (*trend.CacheEntry, error) {
	query := `
		SELECT
			product_id, keyword,
			google_trend_score, twitter_score, reddit_score, tiktok_score,
			source, failed_sources,
			last_updated, next_update_at, error_count, last_error
		FROM trend_cache
		WHERE product_id = $1
	`

	var e trend.CacheEntry
	err := s.db.QueryRow(ctx, query, productID).Scan(
		&e.ProductID,
		&e.Keyword,
		&e.Google,
		&e.Twitter,
		&e.Reddit,
		&e.TikTok,
		&e.Sources,
		&e.FailedSources,
		&e.LastUpdated,
		&e.NextUpdateAt,
		&e.ErrorCount,
		&e.LastError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying trend cache entry: %w", err)
	}

	return &e, nil
}

// Delete removes a cache entry
func (s *TrendCacheStore) Delete(ctx context.Context, productID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trend_cache WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("error deleting trend cache entry: %w", err)
	}
	return nil
}

// ListExpired returns entries whose next_update_at has already passed
func (s *TrendCacheStore) ListExpired(ctx context.Context) ([]trend.CacheEntry, error) {
	query := `
		SELECT
			product_id, keyword,
			google_trend_score, twitter_score, reddit_score, tiktok_score,
			source, failed_sources,
			last_updated, next_update_at, error_count, last_error
		FROM trend_cache
		WHERE next_update_at <= now()
		ORDER BY next_update_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying expired trend cache entries: %w", err)
	}
	defer rows.Close()

	var entries []trend.CacheEntry
	for rows.Next() {
		var e trend.CacheEntry
		if err := rows.Scan(
			&e.ProductID,
			&e.Keyword,
			&e.Google,
			&e.Twitter,
			&e.Reddit,
			&e.TikTok,
			&e.Sources,
			&e.FailedSources,
			&e.LastUpdated,
			&e.NextUpdateAt,
			&e.ErrorCount,
			&e.LastError,
		); err != nil {
			return nil, fmt.Errorf("error scanning trend cache entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trend cache entries: %w", err)
	}

	return entries, nil
}

// RecordError atomically increments the error counter and stores the
// latest failure message without touching the score fields.
func (s *TrendCacheStore) RecordError(ctx context.Context, productID, message string) error {
	query := `
		UPDATE trend_cache
		SET error_count = error_count + 1, last_error = $2
		WHERE product_id = $1
	`

	_, err := s.db.Exec(ctx, query, productID, message)
	if err != nil {
		return fmt.Errorf("error recording trend cache failure: %w", err)
	}
	return nil
}
