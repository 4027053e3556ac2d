package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr string

	// PostgresURL selects the durable store. Empty means in-memory stores,
	// which is the mode used by local development and unit tests.
	PostgresURL string

	// RedisURL enables the report rate limiter. Empty disables it.
	RedisURL string

	// KafkaBrokers enables the lifecycle event stream. Empty disables it.
	KafkaBrokers []string
	KafkaTopic   string

	// OracleURL and OracleAPIKey point at the vision label service.
	OracleURL    string
	OracleAPIKey string

	JWTSigningKey string

	// ReportLimitPerDay caps issue reports per user per rolling day.
	ReportLimitPerDay int
}

// Bonus amounts for the points ledger. Fixed product values, not tunables.
const (
	VerificationBonus = 50
	ResolutionBonus   = 20
)

// RedisConfig holds connection tuning for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("NAGRIK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if topic == "" {
		topic = "nagrik.lifecycle.events"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	reportLimit := 5
	if raw := os.Getenv("REPORT_LIMIT_PER_DAY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			reportLimit = n
		}
	}

	return Config{
		Addr:              addr,
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaBrokers:      brokers,
		KafkaTopic:        topic,
		OracleURL:         os.Getenv("ORACLE_URL"),
		OracleAPIKey:      os.Getenv("ORACLE_API_KEY"),
		JWTSigningKey:     jwtSigningKey,
		ReportLimitPerDay: reportLimit,
	}
}

// Redis returns the Redis connection settings with pool defaults applied.
func (c Config) Redis() RedisConfig {
	return RedisConfig{
		URL:          c.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
