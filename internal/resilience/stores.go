package resilience

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// GuardedSearchStore пропускает вызовы кеша поиска через breaker.
type GuardedSearchStore struct {
	next    domain.SearchCacheStore
	breaker *CircuitBreaker
}

// GuardSearchStore оборачивает хранилище кеша поиска.
func GuardSearchStore(next domain.SearchCacheStore, breaker *CircuitBreaker) *GuardedSearchStore {
	return &GuardedSearchStore{next: next, breaker: breaker}
}

func (g *GuardedSearchStore) Get(ctx context.Context, key string) ([]domain.Product, error) {
	var products []domain.Product
	err := g.breaker.Execute("search_cache.get", func() error {
		var err error
		products, err = g.next.Get(ctx, key)
		return err
	})
	return products, err
}

func (g *GuardedSearchStore) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	return g.breaker.Execute("search_cache.set", func() error {
		return g.next.Set(ctx, key, products, ttl)
	})
}

// GuardedCounterStore пропускает вызовы счётчиков покупок через breaker.
type GuardedCounterStore struct {
	next    domain.PurchaseCounterStore
	breaker *CircuitBreaker
}

// GuardCounterStore оборачивает хранилище счётчиков.
func GuardCounterStore(next domain.PurchaseCounterStore, breaker *CircuitBreaker) *GuardedCounterStore {
	return &GuardedCounterStore{next: next, breaker: breaker}
}

func (g *GuardedCounterStore) Increment(ctx context.Context, clientID, productID int64) (int64, error) {
	var n int64
	err := g.breaker.Execute("purchase_counter.increment", func() error {
		var err error
		n, err = g.next.Increment(ctx, clientID, productID)
		return err
	})
	return n, err
}

func (g *GuardedCounterStore) Counts(ctx context.Context, clientID int64) (map[int64]int64, error) {
	var counts map[int64]int64
	err := g.breaker.Execute("purchase_counter.counts", func() error {
		var err error
		counts, err = g.next.Counts(ctx, clientID)
		return err
	})
	return counts, err
}

// GuardedEventPublisher перестаёт обращаться к брокеру, пока breaker разомкнут:
// мутации смет не ждут таймаутов недоступной Kafka.
type GuardedEventPublisher struct {
	next    domain.EventPublisher
	breaker *CircuitBreaker
}

// GuardEventPublisher оборачивает публикатор событий.
func GuardEventPublisher(next domain.EventPublisher, breaker *CircuitBreaker) *GuardedEventPublisher {
	return &GuardedEventPublisher{next: next, breaker: breaker}
}

func (g *GuardedEventPublisher) Publish(ctx context.Context, event domain.QuotationEvent) error {
	return g.breaker.Execute("events.publish", func() error {
		return g.next.Publish(ctx, event)
	})
}

var (
	_ domain.SearchCacheStore     = (*GuardedSearchStore)(nil)
	_ domain.PurchaseCounterStore = (*GuardedCounterStore)(nil)
	_ domain.EventPublisher       = (*GuardedEventPublisher)(nil)
)
