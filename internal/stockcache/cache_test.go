package stockcache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

type overview struct {
	ProductID int64   `json:"product_id"`
	Qty       float64 `json:"qty"`
}

func TestFetchJSONPopulatesOnMiss(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return []overview{{ProductID: 1, Qty: 42}}, nil
	}

	key, err := cache.OverviewKey(ctx, 0)
	require.NoError(t, err)

	var first []overview
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, 42.0, first[0].Qty)

	var second []overview
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, calls, "second read must hit the cache")
	require.Equal(t, first, second)
}

func TestBumpInvalidatesOldKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.OverviewKey(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.OverviewKey(ctx, 5)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.OverviewKey(ctx, 0)
	require.NoError(t, err)

	var dest []overview
	err = cache.FetchJSON(ctx, key, &dest, func(ctx context.Context) (interface{}, error) {
		return []overview{{ProductID: 2, Qty: 7}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7.0, dest[0].Qty)

	require.NoError(t, cache.Bump(ctx))
}
