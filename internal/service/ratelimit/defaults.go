// internal/service/ratelimit/defaults.go

package ratelimit

import (
	"trendrank/internal/domain/trend"
)

// SourceDefault describes the seed configuration for one source.
type SourceDefault struct {
	Name              trend.Source
	Enabled           bool
	DailyLimit        int
	RequestsPerMinute int
	CacheTTLHours     int
}

// DefaultSources builds the seed records for the four known sources.
// Twitter and TikTok ship disabled: both need paid credentials before
// live queries make sense.
func DefaultSources(defs []SourceDefault) []trend.RateLimitSource {
	sources := make([]trend.RateLimitSource, 0, len(defs))
	for _, d := range defs {
		ttl := d.CacheTTLHours
		if ttl <= 0 {
			ttl = 12
		}
		sources = append(sources, trend.RateLimitSource{
			Name:              d.Name,
			Enabled:           d.Enabled,
			DailyLimit:        d.DailyLimit,
			DailyUsed:         0,
			RequestsPerMinute: d.RequestsPerMinute,
			CacheTTLHours:     ttl,
			Status:            trend.StatusActive,
		})
	}
	return sources
}
