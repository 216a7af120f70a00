package domain

import (
	"context"
	"time"
)

// SearchCacheStore: хранилище результатов поиска товаров с TTL.
type SearchCacheStore interface {
	// Get возвращает закешированный список или ErrCacheMiss.
	Get(ctx context.Context, key string) ([]Product, error)
	// Set сохраняет список на ttl.
	Set(ctx context.Context, key string, products []Product, ttl time.Duration) error
}

// PurchaseCounterStore: счётчики покупок по клиенту без срока жизни.
type PurchaseCounterStore interface {
	// Increment атомарно увеличивает счётчик (client, product) на 1 и возвращает новое значение.
	Increment(ctx context.Context, clientID, productID int64) (int64, error)
	// Counts возвращает все счётчики клиента: product_id -> count.
	Counts(ctx context.Context, clientID int64) (map[int64]int64, error)
}

// PurchaseRecorder учитывает покупку товара клиентом.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, clientID, productID int64) error
}

// EventPublisher публикует события смет наружу; ошибки не должны ломать основную операцию.
type EventPublisher interface {
	Publish(ctx context.Context, event QuotationEvent) error
}
