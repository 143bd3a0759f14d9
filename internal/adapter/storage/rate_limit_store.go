// internal/adapter/storage/rate_limit_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trendrank/internal/domain/trend"
)

// RateLimitStore implements persistence for per-source quota records
type RateLimitStore struct {
	db *pgxpool.Pool
}

// NewRateLimitStore creates a new rate limit store
func NewRateLimitStore(db *pgxpool.Pool) *RateLimitStore {
	return &RateLimitStore{
		db: db,
	}
}

// Get retrieves a source record by name. A missing record returns
// (nil, nil), not an error.
func (s *RateLimitStore) Get(ctx context.Context, name trend.Source) (*trend.RateLimitSource, error) {
	query := `
		SELECT name, enabled, daily_limit, daily_used, requests_per_minute,
			cache_ttl_hours, status, error_message, last_sync_at
		FROM rate_limit_sources
		WHERE name = $1
	`

	var r trend.RateLimitSource
	err := s.db.QueryRow(ctx, query, string(name)).Scan(
		&r.Name,
		&r.Enabled,
		&r.DailyLimit,
		&r.DailyUsed,
		&r.RequestsPerMinute,
		&r.CacheTTLHours,
		&r.Status,
		&r.ErrorMessage,
		&r.LastSyncAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying rate limit source: %w", err)
	}

	return &r, nil
}

// List returns all source records in name order
func (s *RateLimitStore) List(ctx context.Context) ([]trend.RateLimitSource, error) {
	query := `
		SELECT name, enabled, daily_limit, daily_used, requests_per_minute,
			cache_ttl_hours, status, error_message, last_sync_at
		FROM rate_limit_sources
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying rate limit sources: %w", err)
	}
	defer rows.Close()

	var sources []trend.RateLimitSource
	for rows.Next() {
		var r trend.RateLimitSource
		if err := rows.Scan(
			&r.Name,
			&r.Enabled,
			&r.DailyLimit,
			&r.DailyUsed,
			&r.RequestsPerMinute,
			&r.CacheTTLHours,
			&r.Status,
			&r.ErrorMessage,
			&r.LastSyncAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning rate limit source: %w", err)
		}
		sources = append(sources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate limit sources: %w", err)
	}

	return sources, nil
}

// Seed inserts a source record only when none exists, so an existing
// record's configuration is never overwritten.
func (s *RateLimitStore) Seed(ctx context.Context, r trend.RateLimitSource) error {
	query := `
		INSERT INTO rate_limit_sources (
			name, enabled, daily_limit, daily_used, requests_per_minute,
			cache_ttl_hours, status, error_message, last_sync_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO NOTHING
	`

	_, err := s.db.Exec(
		ctx,
		query,
		string(r.Name),
		r.Enabled,
		r.DailyLimit,
		r.DailyUsed,
		r.RequestsPerMinute,
		r.CacheTTLHours,
		string(r.Status),
		r.ErrorMessage,
		r.LastSyncAt,
	)
	if err != nil {
		return fmt.Errorf("error seeding rate limit source %s: %w", r.Name, err)
	}
	return nil
}

// IncrementUsage atomically counts one request against the source's
// daily quota. Multiple concurrent rankings share the same counter, so
// the increment happens in SQL rather than read-modify-write.
func (s *RateLimitStore) IncrementUsage(ctx context.Context, name trend.Source) error {
	query := `
		UPDATE rate_limit_sources
		SET daily_used = daily_used + 1, last_sync_at = now()
		WHERE name = $1
	`

	tag, err := s.db.Exec(ctx, query, string(name))
	if err != nil {
		return fmt.Errorf("error incrementing usage for %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate limit source not found: %s", name)
	}
	return nil
}

// ResetDaily zeroes the daily counters for all sources
func (s *RateLimitStore) ResetDaily(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `UPDATE rate_limit_sources SET daily_used = 0`)
	if err != nil {
		return fmt.Errorf("error resetting daily usage: %w", err)
	}
	return nil
}

// SetStatus transitions a source's health state and records the
// triggering message.
func (s *RateLimitStore) SetStatus(ctx context.Context, name trend.Source, status trend.Status, message *string) error {
	query := `
		UPDATE rate_limit_sources
		SET status = $2, error_message = $3, last_sync_at = now()
		WHERE name = $1
	`

	tag, err := s.db.Exec(ctx, query, string(name), string(status), message)
	if err != nil {
		return fmt.Errorf("error updating status for %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate limit source not found: %s", name)
	}
	return nil
}
