// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trendrank/internal/domain/trend"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Trend       TrendConfig
	Sources     SourcesConfig
	Ranker      RankerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// ConnString builds the postgres connection string.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// TrendConfig holds trend aggregation configuration
type TrendConfig struct {
	CacheTTL        time.Duration
	NeutralScore    float64
	Weights         trend.Weights
	FanoutTimeout   time.Duration
	RefreshInterval time.Duration
	EventsTopic     string
}

// SourceConfig holds quota configuration for one external source
type SourceConfig struct {
	Enabled           bool
	DailyLimit        int
	RequestsPerMinute int
}

// SourcesConfig holds per-source adapter and quota configuration
type SourcesConfig struct {
	Google  SourceConfig
	Twitter SourceConfig
	Reddit  SourceConfig
	TikTok  SourceConfig

	TwitterBearerToken string
	RedditUserAgent    string

	GoogleRetryAttempts  int
	GoogleRetryBaseDelay time.Duration
	GoogleMinSpacing     time.Duration

	HTTPTimeout time.Duration
}

// RankerConfig holds the final score weighting
type RankerConfig struct {
	TrendWeight    float64
	ProfitWeight   float64
	ViralityWeight float64
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trendrank"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Trend: TrendConfig{
			CacheTTL:     time.Duration(getEnvAsInt("TREND_CACHE_TTL_HOURS", 12)) * time.Hour,
			NeutralScore: getEnvAsFloat("TREND_NEUTRAL_SCORE", 0.5),
			Weights: trend.Weights{
				Google:  getEnvAsFloat("TREND_WEIGHT_GOOGLE", 0.30),
				Twitter: getEnvAsFloat("TREND_WEIGHT_TWITTER", 0.25),
				Reddit:  getEnvAsFloat("TREND_WEIGHT_REDDIT", 0.25),
				TikTok:  getEnvAsFloat("TREND_WEIGHT_TIKTOK", 0.20),
			},
			FanoutTimeout:   getEnvAsDuration("TREND_FANOUT_TIMEOUT", 30*time.Second),
			RefreshInterval: getEnvAsDuration("TREND_REFRESH_INTERVAL", 15*time.Minute),
			EventsTopic:     getEnv("TREND_EVENTS_TOPIC", "trend"),
		},
		Sources: SourcesConfig{
			Google: SourceConfig{
				Enabled:           getEnvAsBool("SOURCE_GOOGLE_ENABLED", true),
				DailyLimit:        getEnvAsInt("SOURCE_GOOGLE_DAILY_LIMIT", 90000),
				RequestsPerMinute: getEnvAsInt("SOURCE_GOOGLE_RPM", 60),
			},
			Twitter: SourceConfig{
				Enabled:           getEnvAsBool("SOURCE_TWITTER_ENABLED", false),
				DailyLimit:        getEnvAsInt("SOURCE_TWITTER_DAILY_LIMIT", 100),
				RequestsPerMinute: getEnvAsInt("SOURCE_TWITTER_RPM", 5),
			},
			Reddit: SourceConfig{
				Enabled:           getEnvAsBool("SOURCE_REDDIT_ENABLED", true),
				DailyLimit:        getEnvAsInt("SOURCE_REDDIT_DAILY_LIMIT", 1000),
				RequestsPerMinute: getEnvAsInt("SOURCE_REDDIT_RPM", 30),
			},
			TikTok: SourceConfig{
				Enabled:           getEnvAsBool("SOURCE_TIKTOK_ENABLED", false),
				DailyLimit:        getEnvAsInt("SOURCE_TIKTOK_DAILY_LIMIT", 1000),
				RequestsPerMinute: getEnvAsInt("SOURCE_TIKTOK_RPM", 30),
			},
			TwitterBearerToken:   getEnv("TWITTER_BEARER_TOKEN", ""),
			RedditUserAgent:      getEnv("REDDIT_USER_AGENT", "trendrank/1.0"),
			GoogleRetryAttempts:  getEnvAsInt("GOOGLE_RETRY_ATTEMPTS", 3),
			GoogleRetryBaseDelay: getEnvAsDuration("GOOGLE_RETRY_BASE_DELAY", 500*time.Millisecond),
			GoogleMinSpacing:     getEnvAsDuration("GOOGLE_MIN_REQUEST_SPACING", 1*time.Second),
			HTTPTimeout:          getEnvAsDuration("SOURCE_HTTP_TIMEOUT", 10*time.Second),
		},
		Ranker: RankerConfig{
			TrendWeight:    getEnvAsFloat("RANKER_TREND_WEIGHT", 0.3),
			ProfitWeight:   getEnvAsFloat("RANKER_PROFIT_WEIGHT", 0.4),
			ViralityWeight: getEnvAsFloat("RANKER_VIRALITY_WEIGHT", 0.3),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if err := config.Trend.Weights.Validate(); err != nil {
		return err
	}

	if config.Trend.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", config.Trend.CacheTTL)
	}

	if config.Trend.NeutralScore < 0 || config.Trend.NeutralScore > 1 {
		return fmt.Errorf("neutral score must be in [0,1], got %v", config.Trend.NeutralScore)
	}

	sum := config.Ranker.TrendWeight + config.Ranker.ProfitWeight + config.Ranker.ViralityWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("ranker weights must sum to 1.0, got %v", sum)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
