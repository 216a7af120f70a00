// Package quotation реализует агрегат сметы: создание, позиции, пересчёт итога и финализацию.
package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/metrics"
)

// Policy задаёт настраиваемое поведение агрегата.
type Policy struct {
	// AutoRecomputeTotal пересчитывает итог сметы внутри каждой мутации позиций.
	// При false итог меняется только явным вызовом RecomputeTotalPrice.
	AutoRecomputeTotal bool
	// LockCompleted запрещает менять позиции финализированной сметы.
	LockCompleted bool
}

// DefaultPolicy возвращает политику по умолчанию.
func DefaultPolicy() Policy {
	return Policy{AutoRecomputeTotal: true}
}

// Dependencies: коллабораторы сервиса. Timeline, Purchases, Events и Metrics необязательны.
type Dependencies struct {
	Clients    domain.ClientDirectory
	Products   domain.ProductCatalog
	Quotations domain.QuotationRepository
	LineItems  domain.LineItemRepository
	Timeline   domain.TimelineRepository
	Purchases  domain.PurchaseRecorder
	Events     domain.EventPublisher
	Metrics    *metrics.QuotationMetrics
	Logger     *log.Entry
	// Now и Location определяют "сегодня" для проверки даты поставки.
	Now      func() time.Time
	Location *time.Location
}

// Service: агрегат сметы.
type Service struct {
	clients    domain.ClientDirectory
	products   domain.ProductCatalog
	quotations domain.QuotationRepository
	lineItems  domain.LineItemRepository
	timeline   domain.TimelineRepository
	purchases  domain.PurchaseRecorder
	events     domain.EventPublisher
	metrics    *metrics.QuotationMetrics
	logger     *log.Entry
	now        func() time.Time
	loc        *time.Location
	policy     Policy
}

// NewService конструирует сервис. Обязательны справочник клиентов, каталог и оба репозитория смет.
func NewService(deps Dependencies, policy Policy) (*Service, error) {
	if deps.Clients == nil || deps.Products == nil || deps.Quotations == nil || deps.LineItems == nil {
		return nil, errors.New("quotation service: clients, products, quotations and line items are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.New().WithField("component", "quotation-service")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}

	return &Service{
		clients:    deps.Clients,
		products:   deps.Products,
		quotations: deps.Quotations,
		lineItems:  deps.LineItems,
		timeline:   deps.Timeline,
		purchases:  deps.Purchases,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
		loc:        deps.Location,
		policy:     policy,
	}, nil
}

// Policy возвращает действующую политику.
func (s *Service) Policy() Policy {
	return s.policy
}

// Create создаёт смету клиента на дату поставки. Пустой статус означает CREATED.
func (s *Service) Create(ctx context.Context, clientID int64, inputDate time.Time, status domain.QuotationStatus) (domain.Quotation, error) {
	defer s.metrics.ObserveOperation("create")()

	if status == "" {
		status = domain.QuotationStatusCreated
	}
	if !status.Valid() {
		return domain.Quotation{}, domain.ErrInvalidStatus
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return domain.Quotation{}, err
	}

	date := s.calendarDate(inputDate)
	exists, err := s.quotations.ExistsForClientDate(ctx, clientID, date)
	if err != nil {
		return domain.Quotation{}, err
	}
	if exists {
		return domain.Quotation{}, domain.ErrQuotationAlreadyExists
	}
	if s.backdated(date) {
		return domain.Quotation{}, domain.ErrInvalidDate
	}

	now := s.now().UTC()
	created, err := s.quotations.Create(ctx, domain.Quotation{
		ClientID:   clientID,
		Name:       domain.QuotationName(date, client.Name),
		TotalPrice: 0,
		Status:     status,
		InputDate:  date,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return domain.Quotation{}, err
	}

	s.logger.WithFields(log.Fields{
		"quotation_id": created.ID,
		"client_id":    clientID,
		"input_date":   date.Format("2006-01-02"),
	}).Info("quotation created")

	s.metrics.RecordQuotationCreated()
	s.appendTimeline(ctx, created.ID, domain.TimelineQuotationCreated, "created")
	s.publish(ctx, domain.EventQuotationCreated, created, nil)

	return created, nil
}

// AddLineItems добавляет пакет позиций. Весь пакет валидируется до первой записи;
// сама запись пакета не атомарна.
func (s *Service) AddLineItems(ctx context.Context, inputs []domain.LineItemInput) ([]domain.LineItem, error) {
	defer s.metrics.ObserveOperation("add_line_items")()

	if len(inputs) == 0 {
		return []domain.LineItem{}, nil
	}

	quotations := make(map[int64]domain.Quotation)
	products := make(map[int64]domain.Product)
	seen := make(map[[2]int64]struct{}, len(inputs))
	touched := make([]int64, 0)

	for idx, in := range inputs {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("line item %d: %w", idx, domain.ErrInvalidQuantity)
		}

		q, ok := quotations[in.QuotationID]
		if !ok {
			var err error
			q, err = s.quotations.Get(ctx, in.QuotationID)
			if err != nil {
				return nil, fmt.Errorf("line item %d: %w", idx, err)
			}
			quotations[in.QuotationID] = q
			touched = append(touched, in.QuotationID)
		}
		if err := s.checkMutable(q); err != nil {
			return nil, fmt.Errorf("line item %d: %w", idx, err)
		}

		if _, ok := products[in.ProductID]; !ok {
			p, err := s.products.GetByID(ctx, in.ProductID)
			if err != nil {
				return nil, fmt.Errorf("line item %d: %w", idx, err)
			}
			products[in.ProductID] = p
		}

		key := [2]int64{in.QuotationID, in.ProductID}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("line item %d: %w", idx, domain.ErrQuotationProductAlreadyExists)
		}
		seen[key] = struct{}{}

		_, err := s.lineItems.Get(ctx, in.QuotationID, in.ProductID)
		switch {
		case err == nil:
			return nil, fmt.Errorf("line item %d: %w", idx, domain.ErrQuotationProductAlreadyExists)
		case !errors.Is(err, domain.ErrLineItemNotFound):
			return nil, err
		}
	}

	now := s.now().UTC()
	items := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, domain.LineItem{
			QuotationID: in.QuotationID,
			ProductID:   in.ProductID,
			Price:       products[in.ProductID].UnitPrice * int64(in.Quantity),
			Quantity:    in.Quantity,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.lineItems.BulkCreate(ctx, items); err != nil {
		return nil, err
	}
	s.metrics.RecordLineItemsAdded(len(items))

	for _, item := range items {
		s.recordPurchase(ctx, quotations[item.QuotationID].ClientID, item.ProductID)
	}

	for _, quotationID := range touched {
		s.appendTimeline(ctx, quotationID, domain.TimelineLineItemsAdded, fmt.Sprintf("%d items", countFor(items, quotationID)))
		q := quotations[quotationID]
		if s.policy.AutoRecomputeTotal {
			total, err := s.RecomputeTotalPrice(ctx, quotationID)
			if err != nil {
				return items, fmt.Errorf("recompute total: %w", err)
			}
			q.TotalPrice = total
		}
		s.publish(ctx, domain.EventQuotationLineItemsAdded, q, map[string]any{
			"items": countFor(items, quotationID),
		})
	}

	return items, nil
}

// UpdateLineItem меняет количество позиции. Цена пересчитывается по текущей цене каталога,
// в отличие от AddLineItems, где она фиксируется в момент добавления.
func (s *Service) UpdateLineItem(ctx context.Context, quotationID, productID int64, quantity int32) (domain.LineItem, error) {
	defer s.metrics.ObserveOperation("update_line_item")()

	if quantity <= 0 {
		return domain.LineItem{}, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.LineItem{}, err
	}

	if s.policy.LockCompleted {
		q, err := s.quotations.Get(ctx, quotationID)
		switch {
		case errors.Is(err, domain.ErrQuotationNotFound):
			return domain.LineItem{}, domain.ErrLineItemNotUpdated
		case err != nil:
			return domain.LineItem{}, err
		}
		if err := s.checkMutable(q); err != nil {
			return domain.LineItem{}, err
		}
	}

	if err := s.lineItems.Update(ctx, domain.LineItem{
		QuotationID: quotationID,
		ProductID:   productID,
		Price:       product.UnitPrice * int64(quantity),
		Quantity:    quantity,
		UpdatedAt:   s.now().UTC(),
	}); err != nil {
		return domain.LineItem{}, err
	}

	if s.policy.AutoRecomputeTotal {
		if _, err := s.RecomputeTotalPrice(ctx, quotationID); err != nil {
			return domain.LineItem{}, fmt.Errorf("recompute total: %w", err)
		}
	}

	return s.lineItems.Get(ctx, quotationID, productID)
}

// DeleteLineItem удаляет позицию. Отсутствующая позиция: не ошибка.
func (s *Service) DeleteLineItem(ctx context.Context, quotationID, productID int64) error {
	defer s.metrics.ObserveOperation("delete_line_item")()

	if s.policy.LockCompleted {
		q, err := s.quotations.Get(ctx, quotationID)
		switch {
		case err == nil:
			if err := s.checkMutable(q); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrQuotationNotFound):
			return err
		}
	}

	deleted, err := s.lineItems.Delete(ctx, quotationID, productID)
	if err != nil {
		return err
	}
	if !deleted {
		s.logger.WithFields(log.Fields{
			"quotation_id": quotationID,
			"product_id":   productID,
		}).Debug("line item already absent")
		return nil
	}

	if s.policy.AutoRecomputeTotal {
		if _, err := s.RecomputeTotalPrice(ctx, quotationID); err != nil {
			return fmt.Errorf("recompute total: %w", err)
		}
	}
	return nil
}

// RecomputeTotalPrice записывает в смету сумму цен её позиций (0, если позиций нет).
func (s *Service) RecomputeTotalPrice(ctx context.Context, quotationID int64) (int64, error) {
	if _, err := s.quotations.Get(ctx, quotationID); err != nil {
		return 0, err
	}

	items, err := s.lineItems.ListByQuotation(ctx, quotationID)
	if err != nil {
		return 0, err
	}

	total := domain.SumLineItems(items)
	if err := s.quotations.SetTotalPrice(ctx, quotationID, total, s.now().UTC()); err != nil {
		return 0, err
	}

	s.metrics.RecordTotalRecomputed()
	s.appendTimeline(ctx, quotationID, domain.TimelineTotalRecomputed, fmt.Sprintf("total=%d", total))
	return total, nil
}

// Finalize переводит смету в COMPLETED без дополнительных проверок. Повторный вызов безопасен.
func (s *Service) Finalize(ctx context.Context, quotationID int64) (domain.Quotation, error) {
	defer s.metrics.ObserveOperation("finalize")()

	if err := s.quotations.SetStatus(ctx, quotationID, domain.QuotationStatusCompleted, s.now().UTC()); err != nil {
		return domain.Quotation{}, err
	}
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return domain.Quotation{}, err
	}

	s.logger.WithField("quotation_id", quotationID).Info("quotation finalized")
	s.metrics.RecordQuotationFinalized()
	s.appendTimeline(ctx, quotationID, domain.TimelineQuotationCompleted, "finalized")
	s.publish(ctx, domain.EventQuotationFinalized, q, nil)

	return q, nil
}

// UpdateParticulars заменяет текст особых отметок.
func (s *Service) UpdateParticulars(ctx context.Context, quotationID int64, text string) error {
	defer s.metrics.ObserveOperation("update_particulars")()

	if err := s.quotations.SetParticulars(ctx, quotationID, text, s.now().UTC()); err != nil {
		return err
	}
	s.appendTimeline(ctx, quotationID, domain.TimelineQuotationUpdated, "particulars")
	return nil
}

// UpdateQuotation перезаписывает редактируемые поля шапки и переводит смету в UPDATED.
// Новая дата поставки проходит те же проверки, что и при создании.
func (s *Service) UpdateQuotation(ctx context.Context, quotationID int64, upd domain.QuotationUpdate) (domain.Quotation, error) {
	defer s.metrics.ObserveOperation("update_quotation")()

	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return domain.Quotation{}, err
	}
	if q.Status.Terminal() {
		return domain.Quotation{}, domain.ErrQuotationCompleted
	}

	if upd.InputDate != nil {
		date := s.calendarDate(*upd.InputDate)
		if !sameDay(date, q.InputDate) {
			exists, err := s.quotations.ExistsForClientDate(ctx, q.ClientID, date)
			if err != nil {
				return domain.Quotation{}, err
			}
			if exists {
				return domain.Quotation{}, domain.ErrQuotationAlreadyExists
			}
			if s.backdated(date) {
				return domain.Quotation{}, domain.ErrInvalidDate
			}
			client, err := s.clients.GetByID(ctx, q.ClientID)
			if err != nil {
				return domain.Quotation{}, err
			}
			q.InputDate = date
			q.Name = domain.QuotationName(date, client.Name)
		}
	}
	if upd.Particulars != nil {
		q.Particulars = *upd.Particulars
	}
	q.Status = domain.QuotationStatusUpdated
	q.UpdatedAt = s.now().UTC()

	if err := s.quotations.Update(ctx, q); err != nil {
		return domain.Quotation{}, err
	}

	s.appendTimeline(ctx, quotationID, domain.TimelineQuotationUpdated, "header replaced")
	s.publish(ctx, domain.EventQuotationUpdated, q, nil)
	return q, nil
}

// Get возвращает шапку сметы.
func (s *Service) Get(ctx context.Context, quotationID int64) (domain.Quotation, error) {
	return s.quotations.Get(ctx, quotationID)
}

// GetLineItems возвращает позиции сметы с названиями товаров для экспорта.
func (s *Service) GetLineItems(ctx context.Context, quotationID int64) ([]domain.LineItemView, error) {
	if _, err := s.quotations.Get(ctx, quotationID); err != nil {
		return nil, err
	}
	return s.lineItemViews(ctx, quotationID)
}

// GetInfo возвращает шапку вместе с позициями.
func (s *Service) GetInfo(ctx context.Context, quotationID int64) (domain.QuotationInfo, error) {
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return domain.QuotationInfo{}, err
	}
	views, err := s.lineItemViews(ctx, quotationID)
	if err != nil {
		return domain.QuotationInfo{}, err
	}
	return domain.QuotationInfo{Quotation: q, Items: views}, nil
}

// History возвращает историю сметы в хронологическом порядке.
func (s *Service) History(ctx context.Context, quotationID int64) ([]domain.TimelineEvent, error) {
	if _, err := s.quotations.Get(ctx, quotationID); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(ctx, quotationID)
}

// Delete удаляет позиции сметы, затем шапку.
func (s *Service) Delete(ctx context.Context, quotationID int64) error {
	defer s.metrics.ObserveOperation("delete")()

	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return err
	}
	if err := s.lineItems.DeleteByQuotation(ctx, quotationID); err != nil {
		return err
	}
	if err := s.quotations.Delete(ctx, quotationID); err != nil {
		return err
	}

	s.logger.WithField("quotation_id", quotationID).Info("quotation deleted")
	s.publish(ctx, domain.EventQuotationDeleted, q, nil)
	return nil
}

func (s *Service) lineItemViews(ctx context.Context, quotationID int64) ([]domain.LineItemView, error) {
	items, err := s.lineItems.ListByQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.LineItemView, 0, len(items))
	for _, item := range items {
		view := domain.LineItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		switch {
		case err == nil:
			view.ProductName = product.Name
			view.Unit = product.Unit
		case !errors.Is(err, domain.ErrProductNotFound):
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) checkMutable(q domain.Quotation) error {
	if s.policy.LockCompleted && q.Status.Terminal() {
		return domain.ErrQuotationCompleted
	}
	return nil
}

// calendarDate берёт календарную дату из t как есть и помещает её в локацию сервиса.
func (s *Service) calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) backdated(date time.Time) bool {
	return date.Before(domain.DateOnly(s.now(), s.loc))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func countFor(items []domain.LineItem, quotationID int64) int {
	n := 0
	for _, item := range items {
		if item.QuotationID == quotationID {
			n++
		}
	}
	return n
}
