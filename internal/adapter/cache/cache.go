// Package cache memoizes scenario predictions. Fitted model state is immutable
// after initialization, so identical requests always produce identical
// predictions and may be served from a cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
)

// Predictor answers scenario predictions.
type Predictor interface {
	PredictScenario(ctx context.Context, horizonMonths int, scenario string, level *float64) (domain.ScenarioResponse, error)
}

// Store persists prediction responses by key.
type Store interface {
	Get(ctx context.Context, key string) (domain.ScenarioResponse, bool, error)
	Put(ctx context.Context, key string, resp domain.ScenarioResponse) error
}

// CachedPredictor wraps a Predictor with a response Store.
type CachedPredictor struct {
	inner   Predictor
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around a predictor.
func NewCachedPredictor(inner Predictor, store Store, logger *slog.Logger, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{inner: inner, store: store, logger: logger, metrics: metrics}
}

// PredictScenario serves from the store when possible. Errors are never
// cached, and a failing store only costs a recomputation.
func (c *CachedPredictor) PredictScenario(ctx context.Context, horizonMonths int, scenario string, level *float64) (domain.ScenarioResponse, error) {
	key, ok := Key(horizonMonths, scenario, level)
	if !ok {
		return c.inner.PredictScenario(ctx, horizonMonths, scenario, level)
	}

	resp, found, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("prediction cache read failed", "key", key, "error", err)
	case found:
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return resp, nil
	default:
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	resp, err = c.inner.PredictScenario(ctx, horizonMonths, scenario, level)
	if err != nil {
		return resp, err
	}
	if err := c.store.Put(ctx, key, resp); err != nil {
		c.logger.Warn("prediction cache write failed", "key", key, "error", err)
	}
	return resp, nil
}

// Key builds the cache key for a request. ok is false for requests that
// cannot succeed, which bypass the cache.
func Key(horizonMonths int, scenario string, level *float64) (string, bool) {
	if horizonMonths <= 0 {
		return "", false
	}
	sc, err := domain.ParseScenario(scenario)
	if err != nil {
		return "", false
	}
	lv := "-"
	if level != nil {
		lv = strconv.FormatFloat(*level, 'g', -1, 64)
	}
	return fmt.Sprintf("predict:%d|%s|%s", horizonMonths, sc, lv), true
}
