package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheRepositoryInterface, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheRepository(client), mr
}

func TestRedisCache_SetGetDel(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	_, err := cache.Get(ctx, "perms:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "perms:1", `["objects.view_apartment"]`, time.Minute))
	val, err := cache.Get(ctx, "perms:1")
	require.NoError(t, err)
	assert.Equal(t, `["objects.view_apartment"]`, val)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "perms:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "perms:2", "x", 0))
	require.NoError(t, cache.Del(ctx, "perms:2"))
	assert.False(t, mr.Exists("perms:2"))
	assert.NoError(t, cache.Del(ctx))
}
