package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

// Store backends.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Alert publishers.
const (
	PublisherKafka = "kafka"
	PublisherLog   = "log"
)

// DefaultRainfallLimit is the alert threshold used when RAINFALL_LIMIT is
// unset or not a number.
const DefaultRainfallLimit = 100.0

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreBackend   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	PostgresDSN    string

	AlertPublisher string
	KafkaBrokers   []string
	AlertTopic     string

	// Daily aggregation schedule.
	AggregateTarget  domain.TargetDay
	AggregateAt      time.Duration // offset from UTC midnight
	SchedulerEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// Variables from an optional dotenv file (ENV_FILE, default ".env") are loaded
// first without overriding the process environment.
func Load() (*Config, error) {
	if err := loadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	target, err := domain.ParseTargetDay(sharedcfg.EnvOrDefault("AGGREGATE_TARGET_DAY", string(domain.TargetToday)))
	if err != nil {
		return nil, fmt.Errorf("invalid AGGREGATE_TARGET_DAY: %w", err)
	}

	at, err := parseTimeOfDay(sharedcfg.EnvOrDefault("AGGREGATE_AT", "00:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGGREGATE_AT: %w", err)
	}

	schedulerEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid SCHEDULER_ENABLED")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreBackend:   strings.ToLower(sharedcfg.EnvOrDefault("STORE_BACKEND", StoreRedis)),
		RedisAddr:      sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		RedisKeyPrefix: sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "rainfall"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),

		AlertPublisher: strings.ToLower(sharedcfg.EnvOrDefault("ALERT_PUBLISHER", PublisherKafka)),
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		AlertTopic:     sharedcfg.EnvOrDefault("ALERT_TOPIC", domain.DefaultAlertTopic),

		AggregateTarget:  target,
		AggregateAt:      at,
		SchedulerEnabled: schedulerEnabled,
	}

	switch cfg.StoreBackend {
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required")
		}
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required when STORE_BACKEND is postgres")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.AlertPublisher {
	case PublisherKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
	case PublisherLog:
	default:
		return nil, fmt.Errorf("invalid ALERT_PUBLISHER %q", cfg.AlertPublisher)
	}
	if cfg.AlertTopic == "" {
		return nil, errors.New("ALERT_TOPIC is required")
	}

	return cfg, nil
}

// AlertThreshold returns RAINFALL_LIMIT as read at call time, falling back to
// DefaultRainfallLimit when it is unset or not a finite number.
func AlertThreshold() float64 {
	s := strings.TrimSpace(os.Getenv("RAINFALL_LIMIT"))
	if s == "" {
		return DefaultRainfallLimit
	}
	v, err := domain.ParseAmount(s)
	if err != nil {
		return DefaultRainfallLimit
	}
	return v
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseTimeOfDay parses "HH:MM" into an offset from midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
