package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl), mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	cache, mr := setupTestRedis(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "brands", []byte(`[{"slug":"apple"}]`)))
	assert.True(t, mr.Exists("storefront:catalog:brands"))

	got, err := cache.Get(ctx, "brands")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"apple"}]`, string(got))

	require.NoError(t, cache.Delete(ctx, "brands"))
	_, err = cache.Get(ctx, "brands")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_TTLHasJitter(t *testing.T) {
	base := 10 * time.Minute
	cache, mr := setupTestRedis(t, base)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, cache.Set(ctx, key, []byte("1")))
		ttl := mr.TTL("storefront:catalog:" + key)
		assert.GreaterOrEqual(t, ttl, base)
		assert.Less(t, ttl, base+base/5)
	}

	mr.FastForward(base + base/5)
	_, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_ConnectionError(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute)
	mr.Close()

	_, err := cache.Get(context.Background(), "brands")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(2, 50*time.Millisecond)
	ctx := context.Background()

	_, err := cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "a", []byte("1")))
	require.NoError(t, cache.Set(ctx, "b", []byte("2")))
	require.NoError(t, cache.Set(ctx, "c", []byte("3")))
	assert.Equal(t, 2, cache.Len())
	_, err = cache.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss, "oldest entry evicted")

	require.NoError(t, cache.Delete(ctx, "b"))
	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "c")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
