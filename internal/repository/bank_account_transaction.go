package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const bankAccountTransactionColumns = `id, bank_account_id, giro_id, type, amount, fee,
	previous_balance, current_balance, reference, description, created_by, seq, created_at`

type BankAccountTransactionRepository struct {
	db *sql.DB
}

func NewBankAccountTransactionRepository(db *sql.DB) *BankAccountTransactionRepository {
	return &BankAccountTransactionRepository{db: db}
}

func (r *BankAccountTransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.BankAccountTransaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO bank_account_transactions (
			id, bank_account_id, giro_id, type, amount, fee,
			previous_balance, current_balance, reference, description, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`,
		t.ID, t.BankAccountID, t.GiroID, t.Type, t.Amount, t.Fee,
		t.PreviousBalance, t.CurrentBalance, t.Reference, t.Description, t.CreatedBy, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *BankAccountTransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.BankAccountTransaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bank_account_transactions WHERE bank_account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bankAccountTransactionColumns+` FROM bank_account_transactions
		WHERE bank_account_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var entries []domain.BankAccountTransaction
	for rows.Next() {
		t, err := scanBankAccountTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		entries = append(entries, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return entries, total, nil
}

func scanBankAccountTransaction(s scanner) (*domain.BankAccountTransaction, error) {
	var t domain.BankAccountTransaction
	err := s.Scan(
		&t.ID, &t.BankAccountID, &t.GiroID, &t.Type, &t.Amount, &t.Fee,
		&t.PreviousBalance, &t.CurrentBalance, &t.Reference, &t.Description,
		&t.CreatedBy, &t.Seq, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
