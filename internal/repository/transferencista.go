package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const transferencistaColumns = `id, user_id, name, available, created_at`

type TransferencistaRepository struct {
	db *sql.DB
}

func NewTransferencistaRepository(db *sql.DB) *TransferencistaRepository {
	return &TransferencistaRepository{db: db}
}

func (r *TransferencistaRepository) Create(ctx context.Context, t *domain.Transferencista) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transferencistas (id, user_id, name, available, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.Name, t.Available, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *TransferencistaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transferencista, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferencistaColumns+` FROM transferencistas WHERE id = $1`, id,
	)
	t, err := scanTransferencista(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *TransferencistaRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferencistaColumns+` FROM transferencistas WHERE user_id = $1`, userID,
	)
	t, err := scanTransferencista(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return t, nil
}

func (r *TransferencistaRepository) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transferencistas SET available = $1 WHERE id = $2`, available, id,
	)
	if err != nil {
		return fmt.Errorf("SetAvailable: %w", err)
	}
	n, err := res.RowsAffected()
	return checkRowsAffected("SetAvailable", n, err, domain.ErrNotFound)
}

func scanTransferencista(s scanner) (*domain.Transferencista, error) {
	var t domain.Transferencista
	err := s.Scan(&t.ID, &t.UserID, &t.Name, &t.Available, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
