package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Day   int     `json:"day"`
	Close float64 `json:"close"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "btc", []point{{1, 100}, {2, 101.5}}, time.Minute))

	var got []point
	require.NoError(t, mc.Get(ctx, "btc", &got))
	assert.Equal(t, []point{{1, 100}, {2, 101.5}}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "raw", "hello", time.Minute))
	require.NoError(t, mc.Get(ctx, "raw", &s))
	assert.Equal(t, "hello", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	now = now.Add(2 * time.Minute)

	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheCleanupDropsExpiredEntries(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(5 * time.Millisecond))
	defer mc.Close()

	require.NoError(t, mc.Set(context.Background(), "short", 1, 10*time.Millisecond))
	require.NoError(t, mc.Set(context.Background(), "long", 2, time.Hour))
	assert.Equal(t, 2, mc.Len())

	require.Eventually(t, func() bool { return mc.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestRedisCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheWithClient(db, "dipscan")
	ctx := context.Background()

	mock.ExpectSet("dipscan:k", []byte(`{"day":1,"close":2}`), time.Hour).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "k", point{Day: 1, Close: 2}, time.Hour))

	mock.ExpectGet("dipscan:k").SetVal(`{"day":1,"close":2}`)
	var p point
	require.NoError(t, rc.Get(ctx, "k", &p))
	assert.Equal(t, point{Day: 1, Close: 2}, p)

	mock.ExpectGet("dipscan:gone").RedisNil()
	assert.ErrorIs(t, rc.Get(ctx, "gone", &p), ErrCacheMiss)

	mock.ExpectUnlink("dipscan:k").SetVal(1)
	require.NoError(t, rc.Delete(ctx, "k"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCacheFillsMemoryFromBackend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCacheWithClient(db, "p"), WithLayeredL1TTL(time.Minute))
	defer lc.mem.Close()
	ctx := context.Background()

	mock.ExpectGet("p:k").SetVal(`{"day":3,"close":4}`)

	var p point
	require.NoError(t, lc.Get(ctx, "k", &p))
	assert.Equal(t, point{Day: 3, Close: 4}, p)

	// second read is served from memory, no further Redis expectation
	var again point
	require.NoError(t, lc.Get(ctx, "k", &again))
	assert.Equal(t, p, again)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "series:yahoo:BTC-USD:180", GenerateKeyWithParams("series", "yahoo", "BTC-USD", 180))
}
