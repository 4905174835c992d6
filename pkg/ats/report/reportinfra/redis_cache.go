package reportinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/errx"
)

const (
	keyPrefix     = "report_snapshot:"
	generationKey = keyPrefix + "generation"
)

// RedisClient is the subset of redis.Cmdable the cache uses
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// RedisSnapshotCache implementación en Redis del SnapshotCache
type RedisSnapshotCache struct {
	client RedisClient
}

func NewRedisSnapshotCache(client RedisClient) report.SnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (*report.Snapshot, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errx.Wrap(err, "failed to read snapshot from Redis", errx.TypeExternal)
	}

	var snap report.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, errx.Wrap(err, "failed to unmarshal cached snapshot", errx.TypeInternal)
	}
	return &snap, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, snap report.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return errx.Wrap(err, "failed to marshal snapshot", errx.TypeInternal)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store snapshot in Redis", errx.TypeExternal)
	}
	return nil
}

// Generation devuelve el contador global; 0 si nunca se invalidó
func (c *RedisSnapshotCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errx.Wrap(err, "failed to read snapshot generation from Redis", errx.TypeExternal)
	}
	return gen, nil
}

// Invalidate bumps the generation; older entries expire on their own TTL.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return errx.Wrap(err, "failed to bump snapshot generation in Redis", errx.TypeExternal)
	}
	return nil
}

// NoopCache never stores anything; used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*report.Snapshot, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, string, report.Snapshot, time.Duration) error { return nil }

func (NoopCache) Generation(context.Context) (int64, error) { return 0, nil }

func (NoopCache) Invalidate(context.Context) error { return nil }
