package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs, grouped by concern.
// All handles are constructed from it in main; nothing reads the
// environment after startup.
type Config struct {
	Environment string
	LogLevel    string

	HTTP     HTTPConfig
	CORS     CORSConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cheqd    CheqdConfig
	Credits  CreditsConfig
}

// HTTPConfig captures HTTP server level configuration.
type HTTPConfig struct {
	Addr           string
	PublicBaseURL  string
	RequestTimeout time.Duration
}

// CORSConfig lists the origins allowed to call the public API.
type CORSConfig struct {
	AllowedOrigins []string
}

// DatabaseConfig holds connection pool settings for Postgres.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds cache settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig holds analytics event publishing settings. Empty brokers
// disable publishing (the noop producer is used instead).
type KafkaConfig struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	AnalyticsTopic  string
}

// CheqdConfig points at the hosted identity/status-list API.
type CheqdConfig struct {
	BaseURL     string
	ResolverURL string
	Network     string
	Timeout     time.Duration
	MaxRetries  int
}

// CreditsConfig controls the free allowance granted to new users.
type CreditsConfig struct {
	InitialCredits int
}

// FromEnv builds the full configuration from environment variables so main
// stays lean. A .env file is loaded first when present (ignored in
// production deployments that inject real env).
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Addr:           getenv("ADDR", ":8080"),
			PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
			RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(getenv("CORS_ORIGIN", "*")),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getenvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getenvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getenvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getenvDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Acks:            getenv("KAFKA_ACKS", "all"),
			Retries:         getenvInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: getenvDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
			AnalyticsTopic:  getenv("KAFKA_ANALYTICS_TOPIC", "contentify.analytics.events"),
		},
		Cheqd: CheqdConfig{
			BaseURL:     getenv("CHEQD_API_URL", "https://studio-api.cheqd.net"),
			ResolverURL: getenv("CHEQD_RESOLVER_URL", "https://resolver.cheqd.net/1.0/identifiers"),
			Network:     getenv("CHEQD_NETWORK", "testnet"),
			Timeout:     getenvDuration("CHEQD_TIMEOUT", 10*time.Second),
			MaxRetries:  getenvInt("CHEQD_MAX_RETRIES", 2),
		},
		Credits: CreditsConfig{
			InitialCredits: getenvInt("INITIAL_CREDITS", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate enforces the settings a production deployment cannot run without.
// Development keeps working with defaults so local startup stays one command.
func (c Config) validate() error {
	if c.Environment != "production" {
		return nil
	}
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Cheqd.BaseURL == "" {
		missing = append(missing, "CHEQD_API_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	switch c.Cheqd.Network {
	case "testnet", "mainnet":
	default:
		return fmt.Errorf("CHEQD_NETWORK must be testnet or mainnet, got %q", c.Cheqd.Network)
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
