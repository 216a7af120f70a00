package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

const dateLayout = "2006-01-02"

type quotationRepository struct {
	db *sql.DB
}

// NewQuotationRepository создаёт PostgreSQL-реализацию QuotationRepository.
func NewQuotationRepository(store *Store) domain.QuotationRepository {
	return &quotationRepository{db: store.DB()}
}

const quotationColumns = `id, client_id, name, total_price, status, input_date::text, particulars, created_at, updated_at`

func scanQuotation(row interface{ Scan(dest ...any) error }) (domain.Quotation, error) {
	var (
		q         domain.Quotation
		status    string
		inputDate string
	)
	if err := row.Scan(
		&q.ID, &q.ClientID, &q.Name, &q.TotalPrice, &status,
		&inputDate, &q.Particulars, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return domain.Quotation{}, err
	}
	parsed, err := time.Parse(dateLayout, inputDate)
	if err != nil {
		return domain.Quotation{}, fmt.Errorf("parse input_date %q: %w", inputDate, err)
	}
	q.Status = domain.QuotationStatus(status)
	q.InputDate = parsed
	return q, nil
}

func (r *quotationRepository) Create(ctx context.Context, q domain.Quotation) (domain.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quotations (
			client_id, name, total_price, status, input_date, particulars, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8)
		RETURNING id
	`,
		q.ClientID, q.Name, q.TotalPrice, string(q.Status),
		q.InputDate.Format(dateLayout), q.Particulars, q.CreatedAt, q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Quotation{}, domain.ErrQuotationAlreadyExists
		}
		return domain.Quotation{}, domain.StorageError("insert quotation", err)
	}
	return q, nil
}

func (r *quotationRepository) Get(ctx context.Context, id int64) (domain.Quotation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	q, err := scanQuotation(r.db.QueryRowContext(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quotation{}, domain.ErrQuotationNotFound
		}
		return domain.Quotation{}, domain.StorageError("select quotation", err)
	}
	return q, nil
}

func (r *quotationRepository) ExistsForClientDate(ctx context.Context, clientID int64, inputDate time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM quotations WHERE client_id = $1 AND input_date = $2::date)
	`, clientID, inputDate.Format(dateLayout)).Scan(&exists); err != nil {
		return false, domain.StorageError("check quotation exists", err)
	}
	return exists, nil
}

func (r *quotationRepository) Update(ctx context.Context, q domain.Quotation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE quotations
		SET client_id = $1,
		    name = $2,
		    total_price = $3,
		    status = $4,
		    input_date = $5::date,
		    particulars = $6,
		    updated_at = $7
		WHERE id = $8
	`,
		q.ClientID, q.Name, q.TotalPrice, string(q.Status),
		q.InputDate.Format(dateLayout), q.Particulars, q.UpdatedAt, q.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrQuotationAlreadyExists
		}
		return domain.StorageError("update quotation", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrQuotationNotUpdated
	}
	return nil
}

func (r *quotationRepository) SetTotalPrice(ctx context.Context, id int64, total int64, at time.Time) error {
	return r.setColumn(ctx, "update quotation total", "total_price", id, total, at)
}

func (r *quotationRepository) SetStatus(ctx context.Context, id int64, status domain.QuotationStatus, at time.Time) error {
	return r.setColumn(ctx, "update quotation status", "status", id, string(status), at)
}

func (r *quotationRepository) SetParticulars(ctx context.Context, id int64, text string, at time.Time) error {
	return r.setColumn(ctx, "update quotation particulars", "particulars", id, text, at)
}

// setColumn обновляет одну колонку; column подставляется только из констант этого файла.
func (r *quotationRepository) setColumn(ctx context.Context, op, column string, id int64, value any, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE quotations SET `+column+` = $1, updated_at = $2 WHERE id = $3`,
		value, at, id,
	)
	if err != nil {
		return domain.StorageError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrQuotationNotFound
	}
	return nil
}

func (r *quotationRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete quotation", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("rows affected", err)
	}
	if affected == 0 {
		return domain.ErrQuotationNotFound
	}
	return nil
}

func (r *quotationRepository) List(ctx context.Context, filter domain.QuotationFilter) ([]domain.Quotation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	addCond := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if filter.ClientID != 0 {
		addCond("client_id = $%d", filter.ClientID)
	}
	if !filter.CreatedFrom.IsZero() {
		addCond("created_at >= $%d", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		addCond("created_at <= $%d", filter.CreatedTo)
	}
	if filter.NameContains != "" {
		addCond(`name LIKE $%d ESCAPE '\'`, containsPattern(filter.NameContains))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotations`+where, args...).Scan(&total); err != nil {
		return nil, 0, domain.StorageError("count quotations", err)
	}

	query := `SELECT ` + quotationColumns + ` FROM quotations` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.StorageError("list quotations", err)
	}
	defer rows.Close()

	quotations := make([]domain.Quotation, 0)
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, domain.StorageError("scan quotation", err)
		}
		quotations = append(quotations, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.StorageError("iterate quotations", err)
	}

	return quotations, total, nil
}

var _ domain.QuotationRepository = (*quotationRepository)(nil)
