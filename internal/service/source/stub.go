// internal/service/source/stub.go

package source

import (
	"context"
	"time"

	"trendrank/internal/domain/trend"
)

// StubAdapter stands in for a source whose credentials or enablement
// flag are absent. It returns the neutral score with zeroed metrics so
// the system runs fully without any paid API access.
type StubAdapter struct {
	name    trend.Source
	neutral float64
}

// NewStub creates a stub adapter for the given source
func NewStub(name trend.Source, neutral float64) *StubAdapter {
	return &StubAdapter{
		name:    name,
		neutral: neutral,
	}
}

// Name returns the source this adapter serves
func (a *StubAdapter) Name() trend.Source {
	return a.name
}

// GetScore returns the neutral score. The result is a legitimate
// answer, not a degradation, so Fallback stays false.
func (a *StubAdapter) GetScore(_ context.Context, _ string) trend.Score {
	return trend.Score{
		Source:    a.name,
		Value:     a.neutral,
		FetchedAt: time.Now(),
	}
}
