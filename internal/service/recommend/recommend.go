// Package recommend считает покупки клиентов и отдаёт часто покупаемые товары.
package recommend

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// Service: счётчик покупок поверх PurchaseCounterStore.
type Service struct {
	counters domain.PurchaseCounterStore
	catalog  domain.ProductCatalog
	logger   *log.Entry
}

// NewService создаёт сервис рекомендаций.
func NewService(counters domain.PurchaseCounterStore, catalog domain.ProductCatalog, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "purchase-counter")
	}
	return &Service{counters: counters, catalog: catalog, logger: logger}
}

// RecordPurchase увеличивает счётчик (клиент, товар) на единицу.
func (s *Service) RecordPurchase(ctx context.Context, clientID, productID int64) error {
	count, err := s.counters.Increment(ctx, clientID, productID)
	if err != nil {
		return err
	}
	s.logger.WithFields(log.Fields{
		"client_id":  clientID,
		"product_id": productID,
		"count":      count,
	}).Debug("purchase recorded")
	return nil
}

// TopRecent возвращает до limit товаров клиента по убыванию числа покупок.
// При недоступном хранилище счётчиков возвращается пустой список.
func (s *Service) TopRecent(ctx context.Context, clientID int64, limit int) ([]domain.ProductCount, error) {
	result := make([]domain.ProductCount, 0)
	if limit <= 0 {
		return result, nil
	}

	counts, err := s.counters.Counts(ctx, clientID)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnavailable {
			s.logger.WithError(err).WithField("client_id", clientID).Warn("purchase counters unavailable")
			return result, nil
		}
		return nil, err
	}

	for _, entry := range rank(counts) {
		if len(result) == limit {
			break
		}
		product, err := s.catalog.GetByID(ctx, entry.productID)
		if err != nil {
			if domain.IsNotFound(err) {
				// Товар удалён из каталога, счётчик остаётся.
				continue
			}
			return nil, err
		}
		result = append(result, domain.ProductCount{Product: product, Count: entry.count})
	}

	return result, nil
}

type counted struct {
	productID int64
	count     int64
}

func rank(counts map[int64]int64) []counted {
	ranked := make([]counted, 0, len(counts))
	for productID, count := range counts {
		ranked = append(ranked, counted{productID: productID, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].productID < ranked[j].productID
	})
	return ranked
}

var _ domain.PurchaseRecorder = (*Service)(nil)
