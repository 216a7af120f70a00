package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// SearchStore хранит результаты поиска товаров как JSON-список под ключом с TTL.
type SearchStore struct {
	client *goredis.Client
}

// NewSearchStore создаёт кеш поиска поверх клиента Redis.
func NewSearchStore(client *goredis.Client) *SearchStore {
	return &SearchStore{client: client}
}

func (s *SearchStore) Get(ctx context.Context, key string) ([]domain.Product, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, domain.UnavailableError("redis get", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// Повреждённое значение считаем промахом, следующий Set его перезапишет.
		return nil, domain.ErrCacheMiss
	}
	if products == nil {
		products = make([]domain.Product, 0)
	}
	return products, nil
}

func (s *SearchStore) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	if products == nil {
		products = make([]domain.Product, 0)
	}
	data, err := json.Marshal(products)
	if err != nil {
		return domain.UnavailableError("marshal search result", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return domain.UnavailableError("redis set", err)
	}
	return nil
}

var _ domain.SearchCacheStore = (*SearchStore)(nil)
