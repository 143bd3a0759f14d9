// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"trendrank/internal/adapter/storage"
	"trendrank/internal/config"
	"trendrank/internal/domain/trend"
	"trendrank/internal/server"
	"trendrank/internal/service/aggregator"
	"trendrank/internal/service/ranker"
	"trendrank/internal/service/ratelimit"
	"trendrank/internal/service/refresher"
	"trendrank/internal/service/source"
	"trendrank/internal/service/trendcache"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsConn.Close()

	// Initialize storage adapters
	cacheStore := storage.NewTrendCacheStore(db)
	rateLimitStore := storage.NewRateLimitStore(db)

	// Initialize rate limiter and seed source quotas
	limiter := ratelimit.NewLimiter(rateLimitStore, ratelimit.DefaultSources([]ratelimit.SourceDefault{
		{Name: trend.SourceGoogle, Enabled: cfg.Sources.Google.Enabled, DailyLimit: cfg.Sources.Google.DailyLimit, RequestsPerMinute: cfg.Sources.Google.RequestsPerMinute},
		{Name: trend.SourceTwitter, Enabled: cfg.Sources.Twitter.Enabled, DailyLimit: cfg.Sources.Twitter.DailyLimit, RequestsPerMinute: cfg.Sources.Twitter.RequestsPerMinute},
		{Name: trend.SourceReddit, Enabled: cfg.Sources.Reddit.Enabled, DailyLimit: cfg.Sources.Reddit.DailyLimit, RequestsPerMinute: cfg.Sources.Reddit.RequestsPerMinute},
		{Name: trend.SourceTikTok, Enabled: cfg.Sources.TikTok.Enabled, DailyLimit: cfg.Sources.TikTok.DailyLimit, RequestsPerMinute: cfg.Sources.TikTok.RequestsPerMinute},
	}))
	if err := limiter.InitializeSources(ctx); err != nil {
		log.Fatalf("Failed to initialize rate limit sources: %v", err)
	}

	// Initialize trend cache
	cache := trendcache.NewCache(cacheStore, trendcache.Config{
		TTL: cfg.Trend.CacheTTL,
	})

	// Build source adapters: live where credentials/flags allow, stubs
	// otherwise
	adapters := source.Build(source.Config{
		Neutral:       cfg.Trend.NeutralScore,
		GoogleEnabled: cfg.Sources.Google.Enabled,
		Google: source.GoogleConfig{
			Timeout:        cfg.Sources.HTTPTimeout,
			RetryAttempts:  cfg.Sources.GoogleRetryAttempts,
			RetryBaseDelay: cfg.Sources.GoogleRetryBaseDelay,
			MinSpacing:     cfg.Sources.GoogleMinSpacing,
		},
		Twitter: source.TwitterConfig{
			BearerToken: cfg.Sources.TwitterBearerToken,
			Timeout:     cfg.Sources.HTTPTimeout,
		},
		RedditEnabled: cfg.Sources.Reddit.Enabled,
		Reddit: source.RedditConfig{
			UserAgent: cfg.Sources.RedditUserAgent,
			Timeout:   cfg.Sources.HTTPTimeout,
		},
		TikTokEnabled: cfg.Sources.TikTok.Enabled,
		TikTok: source.TikTokConfig{
			Timeout: cfg.Sources.HTTPTimeout,
		},
	})

	// Initialize trend aggregator
	trendAggregator, err := aggregator.New(cache, limiter, adapters, natsConn, aggregator.Config{
		Weights:       cfg.Trend.Weights,
		NeutralScore:  cfg.Trend.NeutralScore,
		FanoutTimeout: cfg.Trend.FanoutTimeout,
		EventsTopic:   cfg.Trend.EventsTopic,
	})
	if err != nil {
		log.Fatalf("Failed to initialize trend aggregator: %v", err)
	}

	// Initialize product ranker
	productRanker := ranker.New(trendAggregator, ranker.Config{
		TrendWeight:    cfg.Ranker.TrendWeight,
		ProfitWeight:   cfg.Ranker.ProfitWeight,
		ViralityWeight: cfg.Ranker.ViralityWeight,
	})

	// Start background maintenance: stale entry refresh + daily quota reset
	maintenance := refresher.New(cache, trendAggregator, limiter, refresher.Config{
		RefreshInterval: cfg.Trend.RefreshInterval,
	})
	if err := maintenance.Start(ctx); err != nil {
		log.Fatalf("Failed to start refresher: %v", err)
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		natsConn,
		cfg.Trend.EventsTopic,
		trendAggregator,
		productRanker,
		cache,
		limiter,
	)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Stop background maintenance
	if err := maintenance.Stop(shutdownCtx); err != nil {
		log.Printf("Refresher shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
