package valkey

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeokiss/github-bitrix24-bridge/application/port"
	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
)

func setupCache(t *testing.T, ttl time.Duration) (*MappingCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewMappingCache(client, ttl, log), mr
}

func TestMappingCacheRoundTrip(t *testing.T) {
	cache, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	mapping := identity.Mapping{
		"alice": {ID: 12, Name: "Alice Kim"},
		"bob":   {ID: 7, Name: "Bob Lee"},
	}

	require.NoError(t, cache.Set(ctx, "acme", "widgets", "main", mapping))

	got, err := cache.Get(ctx, "acme", "widgets", "main")
	require.NoError(t, err)
	assert.Equal(t, mapping, got)
}

func TestMappingCacheMiss(t *testing.T) {
	cache, _ := setupCache(t, time.Minute)

	_, err := cache.Get(context.Background(), "acme", "widgets", "main")
	assert.ErrorIs(t, err, port.ErrNotCached)
}

func TestMappingCacheKeyIncludesRevision(t *testing.T) {
	cache, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "acme", "widgets", "main", identity.Mapping{"a": {ID: 1}}))

	_, err := cache.Get(ctx, "acme", "widgets", "develop")
	assert.ErrorIs(t, err, port.ErrNotCached)
}

func TestMappingCacheEntryExpires(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "acme", "widgets", "main", identity.Mapping{"a": {ID: 1}}))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("acme", "widgets", "main")))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "acme", "widgets", "main")
	assert.ErrorIs(t, err, port.ErrNotCached)
}

func TestMappingCacheDefaultTTL(t *testing.T) {
	cache, mr := setupCache(t, 0)

	require.NoError(t, cache.Set(context.Background(), "acme", "widgets", "main", identity.Mapping{}))
	assert.Equal(t, defaultTTL, mr.TTL(cacheKey("acme", "widgets", "main")))
}

func TestMappingCachePing(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)

	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestMappingCacheCorruptEntry(t *testing.T) {
	cache, mr := setupCache(t, time.Minute)

	require.NoError(t, mr.Set(cacheKey("acme", "widgets", "main"), "{broken"))

	_, err := cache.Get(context.Background(), "acme", "widgets", "main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrNotCached)
}
