package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return TradeBalances{SundryCreditors: 1200}, nil
	}

	key, err := cache.BuildKey(ctx, "reports", "trade")
	require.NoError(t, err)

	var first TradeBalances
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	var second TradeBalances
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, calls)
	assert.InDelta(t, 1200.0, second.SundryCreditors, 1e-9)
}

func TestBumpShiftsKeySpace(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "reports", "trade")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "reports", "trade")
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	var out TradeBalances
	err := cache.FetchJSON(ctx, "any", &out, func(context.Context) (interface{}, error) {
		return TradeBalances{ExpenseDues: 50}, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, out.ExpenseDues, 1e-9)
	assert.NoError(t, cache.Bump(ctx))
}
