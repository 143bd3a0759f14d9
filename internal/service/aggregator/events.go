// internal/service/aggregator/events.go

package aggregator

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"trendrank/internal/domain/trend"
)

const (
	topicRefreshed = "refreshed"
	topicOutage    = "outage"
)

// ScoreEvent is published on the event bus when a product's trend
// scores are recomputed or when all sources fail at once.
type ScoreEvent struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	Keyword         string    `json:"keyword"`
	AggregatedScore float64   `json:"aggregatedScore"`
	Sources         []string  `json:"source"`
	FailedSources   []string  `json:"failedSources"`
	OccurredAt      time.Time `json:"occurredAt"`
}

func newScoreEvent(result trend.AggregatedScore) ScoreEvent {
	sources := make([]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, string(s))
	}
	failed := make([]string, 0, len(result.FailedSources))
	for _, s := range result.FailedSources {
		failed = append(failed, string(s))
	}

	return ScoreEvent{
		ID:              uuid.New().String(),
		ProductID:       result.ProductID,
		Keyword:         result.Keyword,
		AggregatedScore: result.Aggregated,
		Sources:         sources,
		FailedSources:   failed,
		OccurredAt:      time.Now(),
	}
}

// publish sends an event to the bus. Event delivery is best-effort and
// never affects the aggregation result.
func (a *Aggregator) publish(suffix string, event ScoreEvent) {
	if a.eventBus == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("trend aggregator: error marshaling %s event: %v", suffix, err)
		return
	}

	topic := a.config.EventsTopic + "." + suffix
	if err := a.eventBus.Publish(topic, data); err != nil {
		log.Printf("trend aggregator: error publishing %s event: %v", suffix, err)
	}
}
