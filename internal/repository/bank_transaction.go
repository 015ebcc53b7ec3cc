package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const bankTransactionColumns = `id, bank_id, giro_id, type, amount, description, reference, created_by, created_at`

type BankTransactionRepository struct {
	db *sql.DB
}

func NewBankTransactionRepository(db *sql.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

func (r *BankTransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.BankTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO bank_transactions (
			id, bank_id, giro_id, type, amount, description, reference, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.BankID, t.GiroID, t.Type, t.Amount, t.Description, t.Reference, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *BankTransactionRepository) ListByBank(ctx context.Context, bankID uuid.UUID, limit, offset int) ([]domain.BankTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankTransactionColumns+` FROM bank_transactions
		WHERE bank_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		bankID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByBank: %w", err)
	}
	defer rows.Close()

	var entries []domain.BankTransaction
	for rows.Next() {
		var t domain.BankTransaction
		err := rows.Scan(
			&t.ID, &t.BankID, &t.GiroID, &t.Type, &t.Amount,
			&t.Description, &t.Reference, &t.CreatedBy, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ListByBank: scan: %w", err)
		}
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByBank: rows: %w", err)
	}
	return entries, nil
}
