package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const giroEventColumns = `id, giro_id, event_type, from_status, to_status, actor, payload, created_at`

type GiroEventRepository struct {
	db *sql.DB
}

func NewGiroEventRepository(db *sql.DB) *GiroEventRepository {
	return &GiroEventRepository{db: db}
}

func (r *GiroEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.GiroEvent) error {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO giro_events (id, giro_id, event_type, from_status, to_status, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.GiroID, event.EventType, event.FromStatus, event.ToStatus,
		event.Actor, []byte(payload), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *GiroEventRepository) GetByGiroID(ctx context.Context, giroID uuid.UUID) ([]domain.GiroEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+giroEventColumns+` FROM giro_events WHERE giro_id = $1 ORDER BY seq`, giroID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByGiroID: %w", err)
	}
	defer rows.Close()

	var events []domain.GiroEvent
	for rows.Next() {
		var e domain.GiroEvent
		var payload []byte
		err := rows.Scan(
			&e.ID, &e.GiroID, &e.EventType, &e.FromStatus, &e.ToStatus,
			&e.Actor, &payload, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("GetByGiroID: scan: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByGiroID: rows: %w", err)
	}
	return events, nil
}
