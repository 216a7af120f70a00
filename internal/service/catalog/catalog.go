// Package catalog: операции над каталогом товаров.
package catalog

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/fuzzy"
)

// Service оборачивает ProductCatalog проверками и логированием.
type Service struct {
	products domain.ProductCatalog
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductCatalog, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "product-catalog")
	}
	return &Service{products: products, logger: logger}
}

// Get возвращает товар или ErrProductNotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ByCategory возвращает товары категории. Пустая категория недопустима.
func (s *Service) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.ErrFieldRequired
	}
	return s.products.ListByCategory(ctx, category)
}

// Create добавляет товар в каталог.
func (s *Service) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.Name = fuzzy.Canonical(product.Name)
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": created.ID,
		"name":       created.Name,
		"category":   created.Category,
	}).Info("product created")
	return created, nil
}

// UpdatePrice меняет цену товара. Уже зафиксированные цены позиций смет не меняются.
func (s *Service) UpdatePrice(ctx context.Context, id int64, price int64) error {
	if price < 0 {
		return domain.ErrInvalidPrice
	}
	if err := s.products.UpdatePrice(ctx, id, price); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"product_id": id,
		"price":      price,
	}).Info("product price updated")
	return nil
}

// Update частично меняет товар. Пустое изменение возвращает товар как есть.
func (s *Service) Update(ctx context.Context, id int64, upd domain.ProductUpdate) (domain.Product, error) {
	if upd.Empty() {
		return s.products.GetByID(ctx, id)
	}
	if upd.Name != nil {
		name := fuzzy.Canonical(*upd.Name)
		upd.Name = &name
	}

	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	next := upd.Apply(current)
	if errs := next.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	updated, err := s.products.Update(ctx, id, upd)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": id,
		"name":       updated.Name,
		"price":      updated.UnitPrice,
	}).Info("product updated")
	return updated, nil
}

// Delete удаляет товар из каталога. Счётчики покупок не трогаются:
// рекомендации пропускают удалённые товары сами.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
