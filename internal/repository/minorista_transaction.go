package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const minoristaTransactionColumns = `id, minorista_id, giro_id, reversal_of, type, status, amount,
	previous_available_credit, available_credit, previous_balance_in_favor, current_balance_in_favor,
	credit_consumed, profit_earned, external_debt, accumulated_debt, balance_in_favor_used,
	remaining_balance, description, created_by, seq, created_at`

type MinoristaTransactionRepository struct {
	db *sql.DB
}

func NewMinoristaTransactionRepository(db *sql.DB) *MinoristaTransactionRepository {
	return &MinoristaTransactionRepository{db: db}
}

// Create inserts the entry and fills in its database-assigned Seq.
func (r *MinoristaTransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.MinoristaTransaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO minorista_transactions (
			id, minorista_id, giro_id, reversal_of, type, status, amount,
			previous_available_credit, available_credit, previous_balance_in_favor, current_balance_in_favor,
			credit_consumed, profit_earned, external_debt, accumulated_debt, balance_in_favor_used,
			remaining_balance, description, created_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) RETURNING seq`,
		t.ID, t.MinoristaID, t.GiroID, t.ReversalOf, t.Type, t.Status, t.Amount,
		t.PreviousAvailableCredit, t.AvailableCredit, t.PreviousBalanceInFavor, t.CurrentBalanceInFavor,
		t.CreditConsumed, t.ProfitEarned, t.ExternalDebt, t.AccumulatedDebt, t.BalanceInFavorUsed,
		t.RemainingBalance, t.Description, t.CreatedBy, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *MinoristaTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MinoristaTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+minoristaTransactionColumns+` FROM minorista_transactions WHERE id = $1`, id,
	)
	t, err := scanMinoristaTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *MinoristaTransactionRepository) GetByGiroIDForUpdate(ctx context.Context, tx *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+minoristaTransactionColumns+` FROM minorista_transactions
		WHERE giro_id = $1 FOR UPDATE`, giroID,
	)
	t, err := scanMinoristaTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByGiroIDForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByGiroIDForUpdate: %w", mapError(err))
	}
	return t, nil
}

// LatestEffective returns the most recent entry, in creation order, that
// has not been cancelled. It returns ErrNotFound for an empty ledger.
func (r *MinoristaTransactionRepository) LatestEffective(ctx context.Context, tx *sql.Tx, minoristaID uuid.UUID) (*domain.MinoristaTransaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+minoristaTransactionColumns+` FROM minorista_transactions
		WHERE minorista_id = $1 AND status <> $2
		ORDER BY seq DESC LIMIT 1`,
		minoristaID, domain.MinoristaTransactionCancelled,
	)
	t, err := scanMinoristaTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LatestEffective: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("LatestEffective: %w", mapError(err))
	}
	return t, nil
}

// UpdateStatus moves a PENDING entry to status. Any other current status
// fails with ErrEntryNotPending.
func (r *MinoristaTransactionRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.MinoristaTransactionStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE minorista_transactions SET status = $1 WHERE id = $2 AND status = $3`,
		status, id, domain.MinoristaTransactionPending,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	return checkRowsAffected("UpdateStatus", n, err, domain.ErrEntryNotPending)
}

func (r *MinoristaTransactionRepository) ListByMinorista(ctx context.Context, minoristaID uuid.UUID, limit, offset int) ([]domain.MinoristaTransaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM minorista_transactions WHERE minorista_id = $1`, minoristaID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByMinorista: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+minoristaTransactionColumns+` FROM minorista_transactions
		WHERE minorista_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		minoristaID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByMinorista: %w", err)
	}
	defer rows.Close()

	var entries []domain.MinoristaTransaction
	for rows.Next() {
		t, err := scanMinoristaTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByMinorista: scan: %w", err)
		}
		entries = append(entries, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByMinorista: rows: %w", err)
	}
	return entries, total, nil
}

func scanMinoristaTransaction(s scanner) (*domain.MinoristaTransaction, error) {
	var t domain.MinoristaTransaction
	err := s.Scan(
		&t.ID, &t.MinoristaID, &t.GiroID, &t.ReversalOf, &t.Type, &t.Status, &t.Amount,
		&t.PreviousAvailableCredit, &t.AvailableCredit, &t.PreviousBalanceInFavor, &t.CurrentBalanceInFavor,
		&t.CreditConsumed, &t.ProfitEarned, &t.ExternalDebt, &t.AccumulatedDebt, &t.BalanceInFavorUsed,
		&t.RemainingBalance, &t.Description, &t.CreatedBy, &t.Seq, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
