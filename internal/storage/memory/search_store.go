package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

type searchEntry struct {
	products  []domain.Product
	expiresAt time.Time
}

// SearchStore: in-memory кеш результатов поиска с TTL.
// Используется, когда Redis не сконфигурирован.
type SearchStore struct {
	mu      sync.Mutex
	entries map[string]searchEntry
	now     func() time.Time
}

// NewSearchStore создаёт пустой кеш.
func NewSearchStore() *SearchStore {
	return &SearchStore{
		entries: make(map[string]searchEntry),
		now:     time.Now,
	}
}

// WithClock подменяет источник времени (для тестов истечения TTL).
func (s *SearchStore) WithClock(now func() time.Time) *SearchStore {
	s.now = now
	return s
}

// Get возвращает копию закешированного списка или ErrCacheMiss.
func (s *SearchStore) Get(_ context.Context, key string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, domain.ErrCacheMiss
	}

	result := make([]domain.Product, len(entry.products))
	copy(result, entry.products)
	return result, nil
}

// Set сохраняет список. ttl <= 0 означает хранение без срока.
func (s *SearchStore) Set(_ context.Context, key string, products []domain.Product, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.Product, len(products))
	copy(stored, products)

	entry := searchEntry{products: stored}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

var _ domain.SearchCacheStore = (*SearchStore)(nil)
