package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

const purchasesKeyPrefix = "qms:purchases:"

// CounterStore хранит счётчики покупок в хеше на клиента: поле: product_id, значение: count.
// Ключи создаются без TTL.
type CounterStore struct {
	client *goredis.Client
}

// NewCounterStore создаёт хранилище счётчиков поверх клиента Redis.
func NewCounterStore(client *goredis.Client) *CounterStore {
	return &CounterStore{client: client}
}

func purchasesKey(clientID int64) string {
	return purchasesKeyPrefix + strconv.FormatInt(clientID, 10)
}

// Increment выполняет HINCRBY, поэтому параллельные вызовы не теряют приращений.
func (s *CounterStore) Increment(ctx context.Context, clientID, productID int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, purchasesKey(clientID), strconv.FormatInt(productID, 10), 1).Result()
	if err != nil {
		return 0, domain.UnavailableError("redis hincrby", err)
	}
	return n, nil
}

func (s *CounterStore) Counts(ctx context.Context, clientID int64) (map[int64]int64, error) {
	raw, err := s.client.HGetAll(ctx, purchasesKey(clientID)).Result()
	if err != nil {
		return nil, domain.UnavailableError("redis hgetall", err)
	}

	counts := make(map[int64]int64, len(raw))
	for field, value := range raw {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, domain.UnavailableError("redis hgetall", fmt.Errorf("parse product id %q: %w", field, err))
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, domain.UnavailableError("redis hgetall", fmt.Errorf("parse purchase count %q: %w", value, err))
		}
		counts[productID] = count
	}
	return counts, nil
}

var _ domain.PurchaseCounterStore = (*CounterStore)(nil)
