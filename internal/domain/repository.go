package domain

import (
	"context"
	"time"
)

// ClientDirectory: внешний справочник клиентов.
type ClientDirectory interface {
	// GetByID возвращает клиента или ErrClientNotFound.
	GetByID(ctx context.Context, id int64) (Client, error)
}

// ProductCatalog описывает доступ к каталогу товаров.
type ProductCatalog interface {
	// GetByID возвращает товар или ErrProductNotFound.
	GetByID(ctx context.Context, id int64) (Product, error)
	// SearchPrefix ищет товары, имя которых содержит text (без учёта регистра),
	// короткие имена первыми, не больше limit.
	SearchPrefix(ctx context.Context, text string, limit int) ([]Product, error)
	// All возвращает весь каталог.
	All(ctx context.Context) ([]Product, error)
	// ListByCategory возвращает товары категории.
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	// Create сохраняет товар и возвращает его с присвоенным ID.
	Create(ctx context.Context, product Product) (Product, error)
	// UpdatePrice меняет цену товара или возвращает ErrProductNotFound.
	UpdatePrice(ctx context.Context, id int64, price int64) error
	// Update применяет частичное изменение и возвращает товар после него.
	Update(ctx context.Context, id int64, upd ProductUpdate) (Product, error)
	// Delete удаляет товар. Нет товара: ErrProductNotFound, товар в сметах: ErrProductInUse.
	Delete(ctx context.Context, id int64) error
}

// QuotationFilter: условия выборки смет. Нулевые значения не ограничивают выборку.
type QuotationFilter struct {
	ClientID      int64
	CreatedFrom   time.Time
	CreatedTo     time.Time
	NameContains  string
	Offset, Limit int
}

// QuotationRepository описывает хранилище шапок смет.
type QuotationRepository interface {
	// Create сохраняет смету и присваивает ID.
	// Возвращает ErrQuotationAlreadyExists при нарушении уникальности (client_id, input_date).
	Create(ctx context.Context, q Quotation) (Quotation, error)
	// Get возвращает смету или ErrQuotationNotFound.
	Get(ctx context.Context, id int64) (Quotation, error)
	// ExistsForClientDate проверяет наличие сметы клиента на дату.
	ExistsForClientDate(ctx context.Context, clientID int64, inputDate time.Time) (bool, error)
	// Update перезаписывает изменяемые поля шапки. Нет строки: ErrQuotationNotUpdated.
	Update(ctx context.Context, q Quotation) error
	// SetTotalPrice записывает пересчитанный итог.
	SetTotalPrice(ctx context.Context, id int64, total int64, at time.Time) error
	// SetStatus меняет статус сметы.
	SetStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error
	// SetParticulars заменяет текст особых отметок.
	SetParticulars(ctx context.Context, id int64, text string, at time.Time) error
	// Delete удаляет шапку. Нет строки: ErrQuotationNotFound.
	Delete(ctx context.Context, id int64) error
	// List возвращает страницу смет (created_at DESC, id DESC) и общее число под фильтром.
	List(ctx context.Context, filter QuotationFilter) ([]Quotation, int, error)
}

// LineItemRepository описывает хранилище позиций смет.
type LineItemRepository interface {
	// Get возвращает позицию или ErrLineItemNotFound.
	Get(ctx context.Context, quotationID, productID int64) (LineItem, error)
	// BulkCreate вставляет позиции. Транзакционность пакета не гарантируется.
	BulkCreate(ctx context.Context, items []LineItem) error
	// Update меняет цену и количество. Нет строки: ErrLineItemNotUpdated.
	Update(ctx context.Context, item LineItem) error
	// Delete удаляет позицию и сообщает, была ли она.
	Delete(ctx context.Context, quotationID, productID int64) (bool, error)
	// DeleteByQuotation удаляет все позиции сметы.
	DeleteByQuotation(ctx context.Context, quotationID int64) error
	// ListByQuotation возвращает позиции сметы в порядке добавления.
	ListByQuotation(ctx context.Context, quotationID int64) ([]LineItem, error)
}

// TimelineRepository хранит историю сметы.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, quotationID int64) ([]TimelineEvent, error)
}
