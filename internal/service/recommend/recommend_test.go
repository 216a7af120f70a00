package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/storage/memory"
	redisstore "github.com/vladislavdragonenkov/qms/internal/storage/redis"
)

func seedProducts(t *testing.T, catalog domain.ProductCatalog, names ...string) []domain.Product {
	t.Helper()

	products := make([]domain.Product, 0, len(names))
	for _, name := range names {
		p, err := catalog.Create(context.Background(), domain.Product{Name: name, UnitPrice: 100})
		require.NoError(t, err)
		products = append(products, p)
	}
	return products
}

func record(t *testing.T, svc *Service, clientID, productID int64, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		require.NoError(t, svc.RecordPurchase(context.Background(), clientID, productID))
	}
}

func TestTopRecent_OrdersByCount(t *testing.T) {
	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "A", "B", "C")
	svc := NewService(memory.NewCounterStore(), catalog, nil)

	record(t, svc, 1, products[0].ID, 5)
	record(t, svc, 1, products[1].ID, 9)
	record(t, svc, 1, products[2].ID, 2)

	top, err := svc.TopRecent(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Product.Name)
	assert.Equal(t, int64(9), top[0].Count)
	assert.Equal(t, "A", top[1].Product.Name)
	assert.Equal(t, int64(5), top[1].Count)
}

func TestTopRecent_TieBrokenByProductID(t *testing.T) {
	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "first", "second")
	svc := NewService(memory.NewCounterStore(), catalog, nil)

	record(t, svc, 1, products[1].ID, 3)
	record(t, svc, 1, products[0].ID, 3)

	top, err := svc.TopRecent(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, products[0].ID, top[0].Product.ID)
	assert.Equal(t, products[1].ID, top[1].Product.ID)
}

func TestTopRecent_EmptyAndPerClient(t *testing.T) {
	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "A")
	svc := NewService(memory.NewCounterStore(), catalog, nil)

	top, err := svc.TopRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, top)

	record(t, svc, 2, products[0].ID, 1)
	top, err = svc.TopRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, top, "counters of another client must not leak")

	top, err = svc.TopRecent(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestTopRecent_SkipsMissingProducts(t *testing.T) {
	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "A")
	svc := NewService(memory.NewCounterStore(), catalog, nil)

	record(t, svc, 1, 999, 10)
	record(t, svc, 1, products[0].ID, 1)

	top, err := svc.TopRecent(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "A", top[0].Product.Name)
}

func TestTopRecent_SkipsDeletedProduct(t *testing.T) {
	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "A", "B")
	svc := NewService(memory.NewCounterStore(), catalog, nil)

	record(t, svc, 1, products[0].ID, 3)
	record(t, svc, 1, products[1].ID, 1)
	require.NoError(t, catalog.Delete(context.Background(), products[0].ID))

	top, err := svc.TopRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "B", top[0].Product.Name)
}

type unavailableCounters struct{}

func (unavailableCounters) Increment(context.Context, int64, int64) (int64, error) {
	return 0, domain.UnavailableError("redis hincrby", errors.New("dial tcp: connection refused"))
}

func (unavailableCounters) Counts(context.Context, int64) (map[int64]int64, error) {
	return nil, domain.UnavailableError("redis hgetall", errors.New("dial tcp: connection refused"))
}

func TestTopRecent_UnavailableStoreGivesEmptyList(t *testing.T) {
	svc := NewService(unavailableCounters{}, memory.NewProductCatalog(), nil)

	top, err := svc.TopRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, top)

	err = svc.RecordPurchase(context.Background(), 1, 1)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}

func TestTopRecent_CorruptedCountersGiveEmptyList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog := memory.NewProductCatalog()
	products := seedProducts(t, catalog, "A")
	svc := NewService(redisstore.NewCounterStore(client), catalog, nil)

	record(t, svc, 1, products[0].ID, 2)
	mr.HSet("qms:purchases:1", "99", "not-a-number")

	top, err := svc.TopRecent(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}
