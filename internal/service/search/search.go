// Package search ищет товары по началу названия: кеш, затем точный поиск, затем нечёткий.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/fuzzy"
	"github.com/vladislavdragonenkov/qms/internal/metrics"
)

const (
	// FuzzyThreshold: минимальная оценка PartialRatio (строго больше) для нечёткого совпадения.
	FuzzyThreshold = 75
	// MaxLimit: верхняя граница размера выдачи.
	MaxLimit = 100

	keyPrefix = "qms:search:"
)

// Service: поиск товаров с кешированием результата на клиента.
type Service struct {
	catalog domain.ProductCatalog
	cache   domain.SearchCacheStore
	metrics *metrics.QuotationMetrics
	logger  *log.Entry
}

// NewService создаёт сервис поиска. cache может быть nil: тогда кеш не используется.
func NewService(catalog domain.ProductCatalog, cache domain.SearchCacheStore, m *metrics.QuotationMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "product-search")
	}
	return &Service{catalog: catalog, cache: cache, metrics: m, logger: logger}
}

// CacheKey строит ключ кеша из клиента и нормализованного префикса.
func CacheKey(clientID int64, prefix string) string {
	sum := sha256.Sum256([]byte(fuzzy.Normalize(prefix)))
	return keyPrefix + strconv.FormatInt(clientID, 10) + ":" + hex.EncodeToString(sum[:])
}

// SearchByPrefix возвращает товары, отсортированные по имени.
// Закешированный ответ отдаётся как есть, без сверки с каталогом, пока не истёк ttl.
// Пустой результат не кешируется и возвращается как ErrProductNotFound.
func (s *Service) SearchByPrefix(ctx context.Context, clientID int64, prefix string, limit int, ttl time.Duration) ([]domain.Product, error) {
	needle := fuzzy.Normalize(prefix)
	if needle == "" || limit < 1 || limit > MaxLimit || ttl <= 0 {
		return nil, domain.ErrInvalidSearch
	}

	key := CacheKey(clientID, needle)
	if cached, ok := s.fromCache(ctx, key); ok {
		s.metrics.RecordSearch(metrics.SearchSourceCache)
		return cached, nil
	}

	products, source, err := s.lookup(ctx, needle, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		s.metrics.RecordSearch(metrics.SearchSourceNone)
		return nil, domain.ErrProductNotFound
	}
	s.metrics.RecordSearch(source)

	sortByName(products)
	s.toCache(ctx, key, products, ttl)

	return products, nil
}

func (s *Service) lookup(ctx context.Context, needle string, limit int) ([]domain.Product, string, error) {
	exact, err := s.catalog.SearchPrefix(ctx, needle, limit)
	if err != nil {
		return nil, "", err
	}
	if len(exact) > 0 {
		return exact, metrics.SearchSourceExact, nil
	}

	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, "", err
	}
	return fuzzyMatch(all, needle, limit), metrics.SearchSourceFuzzy, nil
}

type scored struct {
	product domain.Product
	score   int
}

// fuzzyMatch оценивает весь каталог и оставляет лучшие limit товаров с оценкой выше порога.
func fuzzyMatch(catalog []domain.Product, needle string, limit int) []domain.Product {
	candidates := make([]scored, 0)
	for _, p := range catalog {
		if score := fuzzy.PartialRatio(needle, p.Name); score > FuzzyThreshold {
			candidates = append(candidates, scored{product: p, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]domain.Product, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.product)
	}
	return result
}

func sortByName(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})
}

func (s *Service) fromCache(ctx context.Context, key string) ([]domain.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	products, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		return products, true
	case errors.Is(err, domain.ErrCacheMiss):
		return nil, false
	default:
		s.metrics.RecordSideEffectFailure("search_cache")
		s.logger.WithError(err).WithField("key", key).Warn("search cache read failed, treating as miss")
		return nil, false
	}
}

func (s *Service) toCache(ctx context.Context, key string, products []domain.Product, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, products, ttl); err != nil {
		s.metrics.RecordSideEffectFailure("search_cache")
		s.logger.WithError(err).WithField("key", key).Warn("search cache write failed")
	}
}
