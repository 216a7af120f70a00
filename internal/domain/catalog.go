package domain

import "time"

// Client: запись справочника клиентов (внешний коллаборатор, только чтение).
type Client struct {
	ID      int64
	Name    string
	Region  string
	Address string
	Comment string
}

// Product: товар каталога. UnitPrice хранится в минимальных денежных единицах.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	UnitPrice int64     `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductUpdate: частичное изменение товара. nil: поле не меняется.
type ProductUpdate struct {
	Name      *string
	Category  *string
	Unit      *string
	UnitPrice *int64
}

// Empty сообщает, что изменять нечего.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Category == nil && u.Unit == nil && u.UnitPrice == nil
}

// Apply возвращает копию p с применёнными полями.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.UnitPrice != nil {
		p.UnitPrice = *u.UnitPrice
	}
	return p
}

// ProductCount: товар с числом покупок клиента.
type ProductCount struct {
	Product Product
	Count   int64
}

// Validate проверяет обязательные поля товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrFieldRequired)
	}
	if p.UnitPrice < 0 {
		errs = append(errs, ErrInvalidPrice)
	}

	return errs
}
