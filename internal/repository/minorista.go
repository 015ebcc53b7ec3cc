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

const minoristaColumns = `id, user_id, business_name, credit_limit, available_credit,
	credit_balance, external_debt, profit_percentage, version, created_at, updated_at`

type MinoristaRepository struct {
	db *sql.DB
}

func NewMinoristaRepository(db *sql.DB) *MinoristaRepository {
	return &MinoristaRepository{db: db}
}

func (r *MinoristaRepository) Create(ctx context.Context, m *domain.Minorista) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO minoristas (
			id, user_id, business_name, credit_limit, available_credit,
			credit_balance, external_debt, profit_percentage, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.UserID, m.BusinessName, m.CreditLimit, m.AvailableCredit,
		m.CreditBalance, m.ExternalDebt, m.ProfitPercentage, m.Version, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *MinoristaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Minorista, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+minoristaColumns+` FROM minoristas WHERE id = $1`, id,
	)
	m, err := scanMinorista(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return m, nil
}

func (r *MinoristaRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Minorista, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+minoristaColumns+` FROM minoristas WHERE user_id = $1`, userID,
	)
	m, err := scanMinorista(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return m, nil
}

func (r *MinoristaRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Minorista, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+minoristaColumns+` FROM minoristas WHERE id = $1 FOR UPDATE`, id,
	)
	m, err := scanMinorista(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapError(err))
	}
	return m, nil
}

// UpdateCredit writes the live credit fields. newVersion must be the locked
// row's version plus one.
func (r *MinoristaRepository) UpdateCredit(ctx context.Context, tx *sql.Tx, id uuid.UUID, state domain.CreditState, newVersion int64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE minoristas
		SET available_credit = $1, credit_balance = $2, external_debt = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7`,
		state.AvailableCredit, state.CreditBalance, state.ExternalDebt, newVersion, now, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateCredit: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	return checkRowsAffected("UpdateCredit", n, err, domain.ErrVersionConflict)
}

func scanMinorista(s scanner) (*domain.Minorista, error) {
	var m domain.Minorista
	err := s.Scan(
		&m.ID, &m.UserID, &m.BusinessName, &m.CreditLimit, &m.AvailableCredit,
		&m.CreditBalance, &m.ExternalDebt, &m.ProfitPercentage, &m.Version,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
