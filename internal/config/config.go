package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HistoryPath        string
	HistoryDateColumn  string
	HistoryValueColumn string
	ScenarioFile       string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Prediction cache.
	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisAddr    string

	// Result publishing.
	PublishEnabled bool
	KafkaBrokers   []string
	KafkaTopic     string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CACHE_TTL", "1h"))
	if err != nil || cacheTTL <= 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	cacheSize, err := parsePositiveInt("CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HistoryPath:        sharedcfg.EnvOrDefault("HISTORY_CSV", "data/embalses_limpio_final.csv"),
		HistoryDateColumn:  sharedcfg.EnvOrDefault("HISTORY_DATE_COLUMN", "fecha"),
		HistoryValueColumn: sharedcfg.EnvOrDefault("HISTORY_VALUE_COLUMN", "total"),
		ScenarioFile:       os.Getenv("SCENARIO_FILE"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,

		CacheBackend: sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		CacheSize:    cacheSize,
		CacheTTL:     cacheTTL,
		RedisAddr:    sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),

		PublishEnabled: os.Getenv("PUBLISH_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "reservoir-forecasts"),
	}

	if cfg.HistoryPath == "" {
		return nil, errors.New("HISTORY_CSV is required")
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q (memory, redis, none)", cfg.CacheBackend)
	}
	if cfg.CacheBackend == CacheRedis && cfg.RedisAddr == "" {
		return nil, errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
	}
	if cfg.PublishEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}
