package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

type lineItemKey struct {
	quotationID int64
	productID   int64
}

// lineItemRepositoryInMemory хранит позиции смет с составным ключом.
type lineItemRepositoryInMemory struct {
	mu    sync.RWMutex
	seq   int64
	items map[lineItemKey]storedLineItem
}

// storedLineItem запоминает порядок вставки, чтобы ListByQuotation был стабильным.
type storedLineItem struct {
	item domain.LineItem
	seq  int64
}

// NewLineItemRepository возвращает in-memory репозиторий позиций.
func NewLineItemRepository() domain.LineItemRepository {
	return &lineItemRepositoryInMemory{items: make(map[lineItemKey]storedLineItem)}
}

func (r *lineItemRepositoryInMemory) Get(_ context.Context, quotationID, productID int64) (domain.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[lineItemKey{quotationID, productID}]
	if !ok {
		return domain.LineItem{}, domain.ErrLineItemNotFound
	}
	return stored.item, nil
}

// BulkCreate вставляет позиции по одной; при дубликате уже вставленные остаются,
// как и в PostgreSQL-реализации без общей транзакции.
func (r *lineItemRepositoryInMemory) BulkCreate(_ context.Context, items []domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		key := lineItemKey{item.QuotationID, item.ProductID}
		if _, exists := r.items[key]; exists {
			return domain.ErrQuotationProductAlreadyExists
		}
		r.seq++
		r.items[key] = storedLineItem{item: item, seq: r.seq}
	}
	return nil
}

func (r *lineItemRepositoryInMemory) Update(_ context.Context, item domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lineItemKey{item.QuotationID, item.ProductID}
	stored, ok := r.items[key]
	if !ok {
		return domain.ErrLineItemNotUpdated
	}
	stored.item.Price = item.Price
	stored.item.Quantity = item.Quantity
	stored.item.UpdatedAt = item.UpdatedAt
	r.items[key] = stored
	return nil
}

func (r *lineItemRepositoryInMemory) Delete(_ context.Context, quotationID, productID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := lineItemKey{quotationID, productID}
	if _, ok := r.items[key]; !ok {
		return false, nil
	}
	delete(r.items, key)
	return true, nil
}

func (r *lineItemRepositoryInMemory) DeleteByQuotation(_ context.Context, quotationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.items {
		if key.quotationID == quotationID {
			delete(r.items, key)
		}
	}
	return nil
}

func (r *lineItemRepositoryInMemory) ListByQuotation(_ context.Context, quotationID int64) ([]domain.LineItem, error) {
	r.mu.RLock()
	stored := make([]storedLineItem, 0)
	for key, s := range r.items {
		if key.quotationID == quotationID {
			stored = append(stored, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	result := make([]domain.LineItem, 0, len(stored))
	for _, s := range stored {
		result = append(result, s.item)
	}
	return result, nil
}

var _ domain.LineItemRepository = (*lineItemRepositoryInMemory)(nil)
