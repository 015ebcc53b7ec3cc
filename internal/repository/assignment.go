package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const bankAssignmentColumns = `id, bank_id, transferencista_id, priority, seq, created_at`

type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.BankAssignment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bank_assignments (id, bank_id, transferencista_id, priority, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		a.ID, a.BankID, a.TransferencistaID, a.Priority, a.CreatedAt,
	).Scan(&a.Seq)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *AssignmentRepository) ListByBank(ctx context.Context, bankID uuid.UUID) ([]domain.BankAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankAssignmentColumns+` FROM bank_assignments
		WHERE bank_id = $1 ORDER BY priority, seq`, bankID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByBank: %w", err)
	}
	defer rows.Close()

	var out []domain.BankAssignment
	for rows.Next() {
		var a domain.BankAssignment
		if err := rows.Scan(&a.ID, &a.BankID, &a.TransferencistaID, &a.Priority, &a.Seq, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByBank: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByBank: rows: %w", err)
	}
	return out, nil
}

// Pool returns the transferencistas eligible for bankID, ordered by priority
// and then by insertion order. Unavailable agents are excluded.
func (r *AssignmentRepository) Pool(ctx context.Context, tx *sql.Tx, bankID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ba.transferencista_id
		FROM bank_assignments ba
		JOIN transferencistas t ON t.id = ba.transferencista_id
		WHERE ba.bank_id = $1 AND t.available = true
		ORDER BY ba.priority, ba.seq`, bankID,
	)
	if err != nil {
		return nil, fmt.Errorf("Pool: %w", mapError(err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("Pool: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Pool: rows: %w", err)
	}
	return ids, nil
}

func (r *AssignmentRepository) LockTracker(ctx context.Context, tx *sql.Tx) (*domain.AssignmentTracker, error) {
	var t domain.AssignmentTracker
	err := tx.QueryRowContext(ctx,
		`SELECT last_assigned_index, updated_at FROM assignment_tracker WHERE id = 1 FOR UPDATE`,
	).Scan(&t.LastAssignedIndex, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LockTracker: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("LockTracker: %w", mapError(err))
	}
	return &t, nil
}

func (r *AssignmentRepository) UpdateTracker(ctx context.Context, tx *sql.Tx, index int, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assignment_tracker SET last_assigned_index = $1, updated_at = $2 WHERE id = 1`,
		index, now,
	)
	if err != nil {
		return fmt.Errorf("UpdateTracker: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	return checkRowsAffected("UpdateTracker", n, err, domain.ErrNotFound)
}
