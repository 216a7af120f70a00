package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/fuzzy"
)

type clientDirectory struct {
	db *sql.DB
}

// NewClientDirectory создаёт справочник клиентов поверх таблицы clients.
func NewClientDirectory(store *Store) domain.ClientDirectory {
	return &clientDirectory{db: store.DB()}
}

func (r *clientDirectory) GetByID(ctx context.Context, id int64) (domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c domain.Client
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, region, address, comment
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Region, &c.Address, &c.Comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, domain.ErrClientNotFound
		}
		return domain.Client{}, domain.StorageError("select client", err)
	}
	return c, nil
}

type productCatalog struct {
	db *sql.DB
}

// NewProductCatalog создаёт PostgreSQL-реализацию ProductCatalog.
func NewProductCatalog(store *Store) domain.ProductCatalog {
	return &productCatalog{db: store.DB()}
}

const productColumns = `id, name, category, unit, unit_price, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Unit, &p.UnitPrice, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *productCatalog) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, domain.StorageError("select product", err)
	}
	return p, nil
}

func (r *productCatalog) SearchPrefix(ctx context.Context, text string, limit int) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE LOWER(name) LIKE $1 ESCAPE '\'
		ORDER BY CHAR_LENGTH(name) ASC, id ASC
	`
	args := []any{containsPattern(fuzzy.Normalize(text))}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.query(ctx, "search products", query, args...)
}

func (r *productCatalog) All(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.query(ctx, "list products", `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
}

func (r *productCatalog) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.query(ctx, "list products by category",
		`SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY id ASC`, category)
}

func (r *productCatalog) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}
	// LOWER(name) в SearchPrefix сравнивается с NFC-строкой, поэтому и хранится NFC.
	product.Name = fuzzy.Canonical(product.Name)

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, category, unit, unit_price, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, product.Name, product.Category, product.Unit, product.UnitPrice, product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		return domain.Product{}, domain.StorageError("insert product", err)
	}
	return product, nil
}

func (r *productCatalog) UpdatePrice(ctx context.Context, id int64, price int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET unit_price = $1, updated_at = $2 WHERE id = $3
	`, price, time.Now().UTC(), id)
	if err != nil {
		return domain.StorageError("update product price", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productCatalog) Update(ctx context.Context, id int64, upd domain.ProductUpdate) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var name *string
	if upd.Name != nil {
		canonical := fuzzy.Canonical(*upd.Name)
		name = &canonical
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products SET
			name = COALESCE($1, name),
			category = COALESCE($2, category),
			unit = COALESCE($3, unit),
			unit_price = COALESCE($4, unit_price),
			updated_at = $5
		WHERE id = $6
		RETURNING `+productColumns,
		name, upd.Category, upd.Unit, upd.UnitPrice, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, domain.StorageError("update product", err)
	}
	return p, nil
}

func (r *productCatalog) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductInUse
		}
		return domain.StorageError("delete product", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productCatalog) query(ctx context.Context, op, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError(op, err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.StorageError("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate products", err)
	}
	return products, nil
}

var (
	_ domain.ClientDirectory = (*clientDirectory)(nil)
	_ domain.ProductCatalog  = (*productCatalog)(nil)
)
