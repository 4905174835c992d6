package reportinfra

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	incrErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	n, _ := strconv.ParseInt(f.values[key], 10, 64)
	n++
	f.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func TestRedisSnapshotCache(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	cache := NewRedisSnapshotCache(client)

	_, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)

	snap := report.Snapshot{Jobs: []kernel.JobID{"j1"}, Counters: report.Counters{Total: 1, Opened: 1}}
	require.NoError(t, cache.Set(ctx, "k", snap, time.Minute))
	require.Equal(t, time.Minute, client.ttls["report_snapshot:k"])

	got, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, snap.Counters, got.Counters)
	require.Equal(t, snap.Jobs, got.Jobs)

	client.getErr = errors.New("connection refused")
	_, _, err = cache.Get(ctx, "k")
	require.True(t, errx.IsType(err, errx.TypeExternal))
}

func TestRedisSnapshotCache_Generation(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	cache := NewRedisSnapshotCache(client)

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.Zero(t, gen)

	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Invalidate(ctx))
	gen, err = cache.Generation(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), gen)

	client.incrErr = errors.New("connection refused")
	require.True(t, errx.IsType(cache.Invalidate(ctx), errx.TypeExternal))

	client.getErr = errors.New("connection refused")
	_, err = cache.Generation(ctx)
	require.True(t, errx.IsType(err, errx.TypeExternal))
}
