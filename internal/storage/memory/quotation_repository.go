package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// quotationRepositoryInMemory: простая in-memory реализация QuotationRepository.
type quotationRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Quotation
}

// NewQuotationRepository возвращает in-memory репозиторий смет для локальной разработки и тестов.
func NewQuotationRepository() domain.QuotationRepository {
	return &quotationRepositoryInMemory{items: make(map[int64]domain.Quotation)}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Create сохраняет смету, если на эту дату у клиента ещё нет другой.
func (r *quotationRepositoryInMemory) Create(_ context.Context, q domain.Quotation) (domain.Quotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(q.ClientID, q.InputDate, 0) {
		return domain.Quotation{}, domain.ErrQuotationAlreadyExists
	}
	r.nextID++
	q.ID = r.nextID
	r.items[q.ID] = q
	return q, nil
}

func (r *quotationRepositoryInMemory) existsLocked(clientID int64, inputDate time.Time, exceptID int64) bool {
	key := dateKey(inputDate)
	for id, q := range r.items {
		if id != exceptID && q.ClientID == clientID && dateKey(q.InputDate) == key {
			return true
		}
	}
	return false
}

func (r *quotationRepositoryInMemory) Get(_ context.Context, id int64) (domain.Quotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.items[id]
	if !ok {
		return domain.Quotation{}, domain.ErrQuotationNotFound
	}
	return q, nil
}

func (r *quotationRepositoryInMemory) ExistsForClientDate(_ context.Context, clientID int64, inputDate time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(clientID, inputDate, 0), nil
}

// Update перезаписывает шапку сметы целиком, сохраняя ID и дату создания.
func (r *quotationRepositoryInMemory) Update(_ context.Context, q domain.Quotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[q.ID]
	if !ok {
		return domain.ErrQuotationNotUpdated
	}
	if r.existsLocked(q.ClientID, q.InputDate, q.ID) {
		return domain.ErrQuotationAlreadyExists
	}
	q.CreatedAt = current.CreatedAt
	r.items[q.ID] = q
	return nil
}

func (r *quotationRepositoryInMemory) mutate(id int64, fn func(q *domain.Quotation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.items[id]
	if !ok {
		return domain.ErrQuotationNotFound
	}
	fn(&q)
	r.items[id] = q
	return nil
}

func (r *quotationRepositoryInMemory) SetTotalPrice(_ context.Context, id int64, total int64, at time.Time) error {
	return r.mutate(id, func(q *domain.Quotation) {
		q.TotalPrice = total
		q.UpdatedAt = at
	})
}

func (r *quotationRepositoryInMemory) SetStatus(_ context.Context, id int64, status domain.QuotationStatus, at time.Time) error {
	return r.mutate(id, func(q *domain.Quotation) {
		q.Status = status
		q.UpdatedAt = at
	})
}

func (r *quotationRepositoryInMemory) SetParticulars(_ context.Context, id int64, text string, at time.Time) error {
	return r.mutate(id, func(q *domain.Quotation) {
		q.Particulars = text
		q.UpdatedAt = at
	})
}

func (r *quotationRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrQuotationNotFound
	}
	delete(r.items, id)
	return nil
}

// List фильтрует сметы, сортирует от новых к старым и применяет offset/limit.
func (r *quotationRepositoryInMemory) List(_ context.Context, filter domain.QuotationFilter) ([]domain.Quotation, int, error) {
	r.mu.RLock()
	matched := make([]domain.Quotation, 0, len(r.items))
	for _, q := range r.items {
		if filter.ClientID != 0 && q.ClientID != filter.ClientID {
			continue
		}
		if !filter.CreatedFrom.IsZero() && q.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && q.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		if filter.NameContains != "" && !strings.Contains(q.Name, filter.NameContains) {
			continue
		}
		matched = append(matched, q)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []domain.Quotation{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

var _ domain.QuotationRepository = (*quotationRepositoryInMemory)(nil)
