package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/redis/go-redis/v9"

	"github.com/aeokiss/github-bitrix24-bridge/application/port"
	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

const (
	keyPrefix  = "ghbridge:mapping:"
	defaultTTL = 10 * time.Minute
)

var (
	redisSetOK  = metrics.NewCounter(`redis_operations_total{operation="set",status="ok"}`)
	redisSetErr = metrics.NewCounter(`redis_operations_total{operation="set",status="error"}`)
	redisSetDur = metrics.NewHistogram(`redis_operation_duration_seconds{operation="set"}`)

	redisGetOK   = metrics.NewCounter(`redis_operations_total{operation="get",status="ok"}`)
	redisGetErr  = metrics.NewCounter(`redis_operations_total{operation="get",status="error"}`)
	redisGetMiss = metrics.NewCounter(`redis_operations_total{operation="get",status="miss"}`)
	redisGetDur  = metrics.NewHistogram(`redis_operation_duration_seconds{operation="get"}`)
)

// MappingCache keeps parsed identity mappings in Valkey, keyed by
// repository and revision. File contents at a commit sha never change,
// so entries only expire by TTL.
type MappingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewMappingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *MappingCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MappingCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(owner, repo, ref string) string {
	return keyPrefix + owner + "/" + repo + "@" + ref
}

func (c *MappingCache) Get(ctx context.Context, owner, repo, ref string) (identity.Mapping, error) {
	key := cacheKey(owner, repo, ref)
	start := time.Now()

	data, err := c.client.Get(ctx, key).Bytes()
	duration := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			redisGetMiss.Inc()
			return nil, port.ErrNotCached
		}
		redisGetErr.Inc()
		c.logger.Error("Redis GET failed",
			logger.RedisFieldsWithError("get", key, duration, err.Error()),
		)
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var mapping identity.Mapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		redisGetErr.Inc()
		return nil, fmt.Errorf("unmarshal cached mapping: %w", err)
	}

	c.logger.Debug("Redis GET completed", logger.RedisFields("get", key, duration))
	redisGetOK.Inc()
	redisGetDur.Update(float64(duration) / 1000)

	return mapping, nil
}

func (c *MappingCache) Set(ctx context.Context, owner, repo, ref string, m identity.Mapping) error {
	key := cacheKey(owner, repo, ref)
	start := time.Now()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		duration := time.Since(start).Milliseconds()
		redisSetErr.Inc()
		c.logger.Error("Redis SET failed",
			logger.RedisFieldsWithError("set", key, duration, err.Error()),
		)
		return fmt.Errorf("redis set: %w", err)
	}

	duration := time.Since(start).Milliseconds()
	c.logger.Debug("Redis SET completed", logger.RedisFields("set", key, duration))
	redisSetOK.Inc()
	redisSetDur.Update(float64(duration) / 1000)

	return nil
}

// Ping reports whether the cache backend is reachable. Used by the
// readiness probe.
func (c *MappingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
