package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestOpen_ParsesURLAndPings(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Open(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	checker := NewChecker(client)
	assert.Equal(t, "redis", checker.Name())
	assert.NoError(t, checker.Check(context.Background()))
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestSearchStore_SetGetAndExpire(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSearchStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "qms:search:1:abc")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	products := []domain.Product{{ID: 1, Name: "감자", UnitPrice: 1000}}
	require.NoError(t, store.Set(ctx, "qms:search:1:abc", products, time.Minute))

	got, err := store.Get(ctx, "qms:search:1:abc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "감자", got[0].Name)
	assert.Equal(t, int64(1000), got[0].UnitPrice)

	assert.Equal(t, time.Minute, mr.TTL("qms:search:1:abc"))

	mr.FastForward(time.Minute + time.Second)
	_, err = store.Get(ctx, "qms:search:1:abc")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestSearchStore_EmptyListIsAHit(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewSearchStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "empty", nil, time.Minute))

	got, err := store.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSearchStore_CorruptedValueIsMiss(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSearchStore(client)

	require.NoError(t, mr.Set("broken", "{not json"))

	_, err := store.Get(context.Background(), "broken")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestSearchStore_ServerDownIsUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewSearchStore(client)
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))

	err = store.Set(context.Background(), "k", nil, time.Minute)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestCounterStore_IncrementAndCounts(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCounterStore(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Increment(ctx, 1, 10)
		require.NoError(t, err)
	}
	n, err := store.Increment(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := store.Counts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{10: 5, 20: 1}, counts)

	// Счётчики живут без срока.
	assert.Equal(t, time.Duration(0), mr.TTL(purchasesKey(1)))

	empty, err := store.Counts(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCounterStore_ConcurrentIncrementsAreNotLost(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewCounterStore(client)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = store.Increment(ctx, 7, 42)
		}()
	}
	wg.Wait()

	counts, err := store.Counts(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), counts[42])
}

func TestCounterStore_CorruptedHashIsUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCounterStore(client)
	ctx := context.Background()

	mr.HSet(purchasesKey(1), "10", "many")
	_, err := store.Counts(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))

	mr.HSet(purchasesKey(2), "potato", "3")
	_, err = store.Counts(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}
