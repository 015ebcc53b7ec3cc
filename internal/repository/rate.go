package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const rateColumns = `id, buy_rate, sell_rate, usd, bcv, is_custom, created_by, created_at`

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) Create(ctx context.Context, tx *sql.Tx, rate *domain.Rate) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rates (id, buy_rate, sell_rate, usd, bcv, is_custom, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rate.ID, rate.BuyRate, rate.SellRate, rate.USD, rate.BCV,
		rate.IsCustom, rate.CreatedBy, rate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *RateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM rates WHERE id = $1`, id,
	)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rate, nil
}

// Latest returns the most recently published book rate. Custom per-giro
// rates are never returned.
func (r *RateRepository) Latest(ctx context.Context) (*domain.Rate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rateColumns+` FROM rates WHERE is_custom = false ORDER BY seq DESC LIMIT 1`,
	)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Latest: %w", domain.ErrRateNotFound)
		}
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return rate, nil
}

func (r *RateRepository) List(ctx context.Context, limit, offset int) ([]domain.Rate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rateColumns+` FROM rates WHERE is_custom = false
		ORDER BY seq DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var rates []domain.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		rates = append(rates, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return rates, nil
}

func scanRate(s scanner) (*domain.Rate, error) {
	var rate domain.Rate
	err := s.Scan(
		&rate.ID, &rate.BuyRate, &rate.SellRate, &rate.USD, &rate.BCV,
		&rate.IsCustom, &rate.CreatedBy, &rate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
