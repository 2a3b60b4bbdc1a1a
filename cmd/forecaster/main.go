package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/reservoir-forecast-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/reservoir-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reservoir-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/reservoir-forecast-service/internal/config"
	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/forecast"
	"github.com/couchcryptid/reservoir-forecast-service/internal/history"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	"github.com/couchcryptid/reservoir-forecast-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	scenarios := domain.DefaultScenarioSet()
	if cfg.ScenarioFile != "" {
		scenarios, err = domain.LoadScenarioSet(cfg.ScenarioFile)
		if err != nil {
			logger.Error("failed to load scenario factors", "path", cfg.ScenarioFile, "error", err)
			os.Exit(1)
		}
		logger.Info("scenario factors loaded", "path", cfg.ScenarioFile)
	}

	loader := history.NewLoader(cfg.HistoryDateColumn, cfg.HistoryValueColumn, logger)
	p := pipeline.New(loader, cfg.HistoryPath, forecast.SeasonalTrendFitter{}, scenarios, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The model is fitted once before serving; a bad history file is fatal.
	if err := p.Init(ctx); err != nil {
		logger.Error("failed to initialize forecast model", "path", cfg.HistoryPath, "error", err)
		os.Exit(1)
	}

	var predictor httpadapter.Predictor = p
	var redisStore *cache.RedisStore
	switch cfg.CacheBackend {
	case config.CacheMemory:
		predictor = cache.NewCachedPredictor(p, cache.NewMemoryStore(cfg.CacheSize), logger, metrics)
		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "size", cfg.CacheSize)
	case config.CacheRedis:
		redisStore = cache.NewRedisStore(cfg.RedisAddr, cfg.CacheTTL)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, predictions will be recomputed until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		predictor = cache.NewCachedPredictor(p, redisStore, logger, metrics)
		logger.Info("prediction cache enabled", "backend", cfg.CacheBackend, "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	default:
		logger.Info("prediction cache disabled")
	}

	var publisher httpadapter.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = writer
		logger.Info("prediction publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, predictor, p, publisher, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
