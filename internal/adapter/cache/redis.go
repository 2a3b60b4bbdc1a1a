package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reservoir-forecast:"

// RedisStore is a Store backed by Redis with a fixed TTL, shared between
// service replicas fitted on the same history.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to addr. The connection is established lazily.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) (domain.ScenarioResponse, bool, error) {
	b, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ScenarioResponse{}, false, nil
		}
		return domain.ScenarioResponse{}, false, fmt.Errorf("redis get: %w", err)
	}
	var resp domain.ScenarioResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return domain.ScenarioResponse{}, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return resp, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, resp domain.ScenarioResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
