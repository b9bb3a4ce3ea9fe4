package tmdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetPut(t *testing.T) {
	cache, err := OpenCache(":memory:", time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "/movie/13/credits?")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "/movie/13/credits?", []byte(`{"cast":[]}`)))
	require.NoError(t, cache.Put(ctx, "/movie/13/credits?", []byte(`{"cast":[{"id":31}]}`)))

	body, ok, err := cache.Get(ctx, "/movie/13/credits?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"cast":[{"id":31}]}`, string(body))
}

func TestCacheExpiry(t *testing.T) {
	cache, err := OpenCache(":memory:", time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "old", []byte("1")))

	now = now.Add(30 * time.Second)
	require.NoError(t, cache.Put(ctx, "new", []byte("2")))

	now = now.Add(45 * time.Second)

	_, ok, err := cache.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok, "entry older than the ttl is a miss")

	_, ok, err = cache.Get(ctx, "new")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestCacheFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	cache, err := OpenCache(path, 0)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "k", []byte("v")))
	require.NoError(t, cache.Close())

	cache, err = OpenCache(path, 0)
	require.NoError(t, err)
	defer cache.Close()

	body, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(body))

	removed, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "a zero ttl never expires")
}
