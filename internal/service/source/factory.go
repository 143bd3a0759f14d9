// internal/service/source/factory.go

package source

import (
	"log"

	"trendrank/internal/domain/trend"
)

// Config selects live or stub adapters for each source. The choice is
// made once at startup: a source without credentials or with its
// enablement flag off gets a stub, not runtime branching inside the
// live adapter.
type Config struct {
	Neutral float64

	GoogleEnabled bool
	Google        GoogleConfig

	Twitter TwitterConfig

	RedditEnabled bool
	Reddit        RedditConfig

	TikTokEnabled bool
	TikTok        TikTokConfig
}

// Build constructs one adapter per known source.
func Build(cfg Config) map[trend.Source]trend.Adapter {
	adapters := make(map[trend.Source]trend.Adapter, 4)

	if cfg.GoogleEnabled {
		adapters[trend.SourceGoogle] = NewGoogle(cfg.Google, cfg.Neutral)
	} else {
		adapters[trend.SourceGoogle] = NewStub(trend.SourceGoogle, cfg.Neutral)
	}

	if cfg.Twitter.BearerToken != "" {
		adapters[trend.SourceTwitter] = NewTwitter(cfg.Twitter, cfg.Neutral)
	} else {
		adapters[trend.SourceTwitter] = NewStub(trend.SourceTwitter, cfg.Neutral)
	}

	if cfg.RedditEnabled {
		adapters[trend.SourceReddit] = NewReddit(cfg.Reddit, cfg.Neutral)
	} else {
		adapters[trend.SourceReddit] = NewStub(trend.SourceReddit, cfg.Neutral)
	}

	if cfg.TikTokEnabled {
		adapters[trend.SourceTikTok] = NewTikTok(cfg.TikTok, cfg.Neutral)
	} else {
		adapters[trend.SourceTikTok] = NewStub(trend.SourceTikTok, cfg.Neutral)
	}

	for name, adapter := range adapters {
		if _, stub := adapter.(*StubAdapter); stub {
			log.Printf("source factory: %s running in stub mode", name)
		}
	}

	return adapters
}
