package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// CounterStore хранит счётчики покупок в памяти.
type CounterStore struct {
	mu     sync.Mutex
	counts map[int64]map[int64]int64
}

// NewCounterStore создаёт пустое хранилище счётчиков.
func NewCounterStore() *CounterStore {
	return &CounterStore{counts: make(map[int64]map[int64]int64)}
}

// Increment увеличивает счётчик пары (client, product) на единицу.
func (s *CounterStore) Increment(_ context.Context, clientID, productID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProduct, ok := s.counts[clientID]
	if !ok {
		byProduct = make(map[int64]int64)
		s.counts[clientID] = byProduct
	}
	byProduct[productID]++
	return byProduct[productID], nil
}

// Counts возвращает копию счётчиков клиента.
func (s *CounterStore) Counts(_ context.Context, clientID int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64]int64, len(s.counts[clientID]))
	for productID, count := range s.counts[clientID] {
		result[productID] = count
	}
	return result, nil
}

var _ domain.PurchaseCounterStore = (*CounterStore)(nil)
