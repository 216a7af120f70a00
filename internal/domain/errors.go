package domain

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для граничного слоя (маппинг в коды ответа).
type Kind int

const (
	// KindUnknown: ошибка без классификации.
	KindUnknown Kind = iota
	// KindNotFound: запрошенный ресурс отсутствует.
	KindNotFound
	// KindConflict: нарушение уникальности (дубликат сметы или позиции).
	KindConflict
	// KindInvalidInput: некорректные входные данные.
	KindInvalidInput
	// KindMutationFailed: запись не затронула ни одной строки.
	KindMutationFailed
	// KindUnavailable: временная недоступность кеша или счётчика.
	KindUnavailable
	// KindStorage: непредвиденная ошибка хранилища.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindMutationFailed:
		return "mutation_failed"
	case KindUnavailable:
		return "unavailable"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error: доменная ошибка с типом Kind. Сентинелы ниже сравниваются через errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	// ErrClientNotFound возвращается, если клиент не найден в справочнике.
	ErrClientNotFound = newError(KindNotFound, "client not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге или поиск ничего не дал.
	ErrProductNotFound = newError(KindNotFound, "product not found")
	// ErrQuotationNotFound возвращается, если смета не найдена.
	ErrQuotationNotFound = newError(KindNotFound, "quotation not found")
	// ErrLineItemNotFound возвращается, если позиции (quotation_id, product_id) нет.
	ErrLineItemNotFound = newError(KindNotFound, "quotation product not found")

	// ErrQuotationAlreadyExists: смета на эту дату у клиента уже есть.
	ErrQuotationAlreadyExists = newError(KindConflict, "quotation already exists for client and date")
	// ErrQuotationProductAlreadyExists: товар уже добавлен в смету.
	ErrQuotationProductAlreadyExists = newError(KindConflict, "quotation product already exists")
	// ErrQuotationCompleted: смета завершена и не принимает изменений.
	ErrQuotationCompleted = newError(KindConflict, "quotation is completed")
	// ErrProductInUse: товар нельзя удалить, пока на него ссылаются позиции смет.
	ErrProductInUse = newError(KindConflict, "product is referenced by quotation line items")

	// ErrInvalidDate: дата сметы раньше текущей.
	ErrInvalidDate = newError(KindInvalidInput, "input date must not precede the current date")
	// ErrInvalidQuantity: количество должно быть больше нуля.
	ErrInvalidQuantity = newError(KindInvalidInput, "quantity must be greater than zero")
	// ErrInvalidPrice: цена не может быть отрицательной.
	ErrInvalidPrice = newError(KindInvalidInput, "price must be non-negative")
	// ErrInvalidStatus: неизвестный статус сметы.
	ErrInvalidStatus = newError(KindInvalidInput, "invalid quotation status")
	// ErrInvalidPagination: page >= 1, page_size в [1,100].
	ErrInvalidPagination = newError(KindInvalidInput, "invalid pagination parameters")
	// ErrInvalidClientID: выборка по клиенту без положительного ID.
	ErrInvalidClientID = newError(KindInvalidInput, "client id must be positive")
	// ErrInvalidDateRange: начало диапазона позже конца.
	ErrInvalidDateRange = newError(KindInvalidInput, "invalid date range")
	// ErrInvalidSearch: некорректные параметры поиска (префикс, limit, ttl).
	ErrInvalidSearch = newError(KindInvalidInput, "invalid search parameters")
	// ErrFieldRequired: не заполнено обязательное поле.
	ErrFieldRequired = newError(KindInvalidInput, "required field is missing")

	// ErrQuotationNotUpdated: обновление сметы не затронуло ни одной строки.
	ErrQuotationNotUpdated = newError(KindMutationFailed, "quotation not updated")
	// ErrLineItemNotUpdated: обновление позиции не затронуло ни одной строки.
	ErrLineItemNotUpdated = newError(KindMutationFailed, "quotation product not updated")

	// ErrCacheMiss: ключа нет в кеше. Не является сбоем.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable: кеш или счётчик недоступны.
	ErrCacheUnavailable = newError(KindUnavailable, "cache unavailable")
)

// StorageError оборачивает ошибку нижнего уровня в KindStorage.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{Kind: KindStorage, Message: "storage error", Op: op, Err: err}
}

// UnavailableError помечает сбой кеша или счётчика.
func UnavailableError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUnavailable, Message: "cache unavailable", Op: op, Err: errors.Join(ErrCacheUnavailable, err)}
}

// KindOf возвращает Kind первой доменной ошибки в цепочке.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnknown
}

// IsNotFound проверяет принадлежность ошибки к семейству NotFound.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict проверяет принадлежность ошибки к семейству Conflict.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}
