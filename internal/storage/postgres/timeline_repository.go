package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

type timelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository создаёт PostgreSQL-реализацию TimelineRepository.
func NewTimelineRepository(store *Store) domain.TimelineRepository {
	return &timelineRepository{db: store.DB()}
}

func (r *timelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO quotation_timeline (quotation_id, type, reason, occurred)
		VALUES ($1,$2,$3,$4)
	`, event.QuotationID, event.Type, event.Reason, event.Occurred); err != nil {
		return domain.StorageError("append timeline event", err)
	}

	return nil
}

func (r *timelineRepository) List(ctx context.Context, quotationID int64) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT quotation_id, type, reason, occurred
		FROM quotation_timeline
		WHERE quotation_id = $1
		ORDER BY occurred ASC, id ASC
	`, quotationID)
	if err != nil {
		return nil, domain.StorageError("list timeline events", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.QuotationID, &event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, domain.StorageError("scan timeline event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate timeline events", err)
	}

	return events, nil
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
