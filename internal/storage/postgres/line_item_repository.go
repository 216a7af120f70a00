package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

type lineItemRepository struct {
	db *sql.DB
}

// NewLineItemRepository создаёт PostgreSQL-реализацию LineItemRepository.
func NewLineItemRepository(store *Store) domain.LineItemRepository {
	return &lineItemRepository{db: store.DB()}
}

func (r *lineItemRepository) Get(ctx context.Context, quotationID, productID int64) (domain.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var item domain.LineItem
	err := r.db.QueryRowContext(ctx, `
		SELECT quotation_id, product_id, price, quantity, created_at, updated_at
		FROM quotation_products
		WHERE quotation_id = $1 AND product_id = $2
	`, quotationID, productID).Scan(
		&item.QuotationID, &item.ProductID, &item.Price, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LineItem{}, domain.ErrLineItemNotFound
		}
		return domain.LineItem{}, domain.StorageError("select line item", err)
	}
	return item, nil
}

// BulkCreate вставляет позиции по одной, без общей транзакции:
// при ошибке уже вставленные строки остаются.
func (r *lineItemRepository) BulkCreate(ctx context.Context, items []domain.LineItem) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	for _, item := range items {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO quotation_products (quotation_id, product_id, price, quantity, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, item.QuotationID, item.ProductID, item.Price, item.Quantity, item.CreatedAt, item.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrQuotationProductAlreadyExists
			}
			return domain.StorageError("insert line item", err)
		}
	}
	return nil
}

func (r *lineItemRepository) Update(ctx context.Context, item domain.LineItem) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE quotation_products
		SET price = $1, quantity = $2, updated_at = $3
		WHERE quotation_id = $4 AND product_id = $5
	`, item.Price, item.Quantity, item.UpdatedAt, item.QuotationID, item.ProductID)
	if err != nil {
		return domain.StorageError("update line item", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrLineItemNotUpdated
	}
	return nil
}

func (r *lineItemRepository) Delete(ctx context.Context, quotationID, productID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM quotation_products WHERE quotation_id = $1 AND product_id = $2
	`, quotationID, productID)
	if err != nil {
		return false, domain.StorageError("delete line item", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, domain.StorageError("rows affected", err)
	}
	return affected > 0, nil
}

func (r *lineItemRepository) DeleteByQuotation(ctx context.Context, quotationID int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM quotation_products WHERE quotation_id = $1`, quotationID); err != nil {
		return domain.StorageError("delete line items", err)
	}
	return nil
}

func (r *lineItemRepository) ListByQuotation(ctx context.Context, quotationID int64) ([]domain.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT quotation_id, product_id, price, quantity, created_at, updated_at
		FROM quotation_products
		WHERE quotation_id = $1
		ORDER BY seq ASC
	`, quotationID)
	if err != nil {
		return nil, domain.StorageError("list line items", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.QuotationID, &item.ProductID, &item.Price, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, domain.StorageError("scan line item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate line items", err)
	}
	return items, nil
}

var _ domain.LineItemRepository = (*lineItemRepository)(nil)
