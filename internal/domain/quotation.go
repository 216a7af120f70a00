package domain

import (
	"fmt"
	"time"
)

// QuotationStatus описывает жизненный цикл сметы.
type QuotationStatus string

const (
	// QuotationStatusCreated: смета создана, итог равен нулю.
	QuotationStatusCreated QuotationStatus = "CREATED"
	// QuotationStatusUpdated: шапка сметы перезаписана через UpdateQuotation.
	QuotationStatusUpdated QuotationStatus = "UPDATED"
	// QuotationStatusCompleted: смета финализирована, переходов дальше нет.
	QuotationStatusCompleted QuotationStatus = "COMPLETED"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s QuotationStatus) Valid() bool {
	switch s {
	case QuotationStatusCreated, QuotationStatusUpdated, QuotationStatusCompleted:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что из статуса нет исходящих переходов.
func (s QuotationStatus) Terminal() bool {
	return s == QuotationStatusCompleted
}

// Quotation: шапка сметы клиента на конкретную дату поставки.
type Quotation struct {
	ID       int64
	ClientID int64
	// Name выводится из даты и имени клиента: "YYYY/MM/DD-<client>".
	Name string
	// TotalPrice: сумма Price всех позиций после последнего пересчёта.
	TotalPrice int64
	Status     QuotationStatus
	// InputDate: запрошенная дата поставки (только дата, время обнулено).
	InputDate   time.Time
	Particulars string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineItem: позиция сметы, ключ (QuotationID, ProductID).
type LineItem struct {
	QuotationID int64
	ProductID   int64
	// Price фиксируется как unit_price * quantity в момент добавления или обновления.
	Price     int64
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItemInput: элемент пакетного добавления позиций.
type LineItemInput struct {
	QuotationID int64
	ProductID   int64
	Quantity    int32
}

// LineItemView: позиция в виде, который отдаётся экспорту.
type LineItemView struct {
	ProductID   int64
	ProductName string
	Unit        string
	Quantity    int32
	Price       int64
}

// QuotationInfo: шапка сметы вместе с позициями.
type QuotationInfo struct {
	Quotation Quotation
	Items     []LineItemView
}

// QuotationUpdate задаёт поля полной перезаписи шапки. nil: поле не меняется.
type QuotationUpdate struct {
	InputDate   *time.Time
	Particulars *string
}

// QuotationName строит имя сметы из даты поставки и имени клиента.
func QuotationName(inputDate time.Time, clientName string) string {
	return fmt.Sprintf("%s-%s", inputDate.Format("2006/01/02"), clientName)
}

// DateOnly обрезает время до полуночи в заданной локации.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SumLineItems считает итог сметы по позициям.
func SumLineItems(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price
	}
	return total
}

// Page: страница результатов offset-пагинации.
type Page[T any] struct {
	Items      []T
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// NewPage собирает страницу и считает количество страниц.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = make([]T, 0)
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
