package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/usecase"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "notifications:unread:alice", []byte("3"), time.Minute))

	val, err := cache.Get(ctx, "notifications:unread:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
	assert.True(t, mr.Exists("cache:notifications:unread:alice"))
}

func TestCacheMiss(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "absent")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "foo", []byte("bar"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "foo"))

	_, err := cache.Get(ctx, "foo")
	assert.ErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheUnavailable(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, err := NewCache(client).Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrCacheMiss)
}

func TestCacheDeleteAdvancesVersion(t *testing.T) {
	client, mr := newTestRedisClient(t)

	cache := NewCache(client)
	ctx := context.Background()

	v, err := cache.Version(ctx, "notifications:unread:alice")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, cache.Delete(ctx, "notifications:unread:alice"))
	require.NoError(t, cache.Delete(ctx, "notifications:unread:alice"))

	v, err = cache.Version(ctx, "notifications:unread:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.True(t, mr.TTL("cache:version:notifications:unread:alice") > 0)
}

func TestCacheSetIfVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("stores while version holds", func(t *testing.T) {
		client, mr := newTestRedisClient(t)
		cache := NewCache(client)

		v, err := cache.Version(ctx, "k")
		require.NoError(t, err)

		stored, err := cache.SetIfVersion(ctx, "k", []byte("4"), v, time.Minute)
		require.NoError(t, err)
		assert.True(t, stored)

		got, err := mr.Get("cache:k")
		require.NoError(t, err)
		assert.Equal(t, "4", got)
		assert.Equal(t, time.Minute, mr.TTL("cache:k"))
	})

	t.Run("skips after an invalidation", func(t *testing.T) {
		client, mr := newTestRedisClient(t)
		cache := NewCache(client)

		v, err := cache.Version(ctx, "k")
		require.NoError(t, err)

		// A notification lands between the count and the write.
		require.NoError(t, cache.Delete(ctx, "k"))

		stored, err := cache.SetIfVersion(ctx, "k", []byte("4"), v, time.Minute)
		require.NoError(t, err)
		assert.False(t, stored)
		assert.False(t, mr.Exists("cache:k"))
	})
}
