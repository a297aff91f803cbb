package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*redisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newRedisStore(client, "promos_test")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStorePutAndScan(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, samplePromo("1", "Deal A")))
	require.NoError(t, store.Put(ctx, samplePromo("1", "Deal A v2")))
	require.NoError(t, store.Put(ctx, samplePromo("2", "Deal B")))

	require.True(t, mr.Exists("promos:promos_test"))
	require.Contains(t, mr.HGet("promos:promos_test", "1"), `"title":"Deal A"`)

	got, err := store.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	sort.Slice(got, func(i, j int) bool { return got[i].ID < got[j].ID })
	require.Equal(t, "Deal A", got[0].Title)
	require.Equal(t, "https://deals.example/2", got[1].Link)
	require.Equal(t, int64(1700000000000), got[1].CreatedAt.UnixMilli())
}

func TestRedisStoreScanRejectsCorruptRecord(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.HSet("promos:promos_test", "bad", "{not json")

	_, err := store.ScanAll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), `"bad"`)
}

func TestNewStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewStore(context.Background(), TypeRedis, Options{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), samplePromo("9", "Deal")))
	require.True(t, mr.Exists("promos:"+defaultTable))
}
