package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const giroColumns = `id, minorista_id, transferencista_id, beneficiary_name, beneficiary_id,
	bank_id, bank_code, account_number, phone, amount_input, currency_input, amount_bs,
	rate_id, bcv_value_applied, commission, system_profit, minorista_profit, execution_type,
	status, return_reason, cancel_reason, executed_by, bank_account_id, payment_proof_ref,
	created_by, version, created_at, updated_at, completed_at`

type GiroRepository struct {
	db *sql.DB
}

func NewGiroRepository(db *sql.DB) *GiroRepository {
	return &GiroRepository{db: db}
}

func (r *GiroRepository) Create(ctx context.Context, tx *sql.Tx, g *domain.Giro) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO giros (
			id, minorista_id, transferencista_id, beneficiary_name, beneficiary_id,
			bank_id, bank_code, account_number, phone, amount_input, currency_input, amount_bs,
			rate_id, bcv_value_applied, commission, system_profit, minorista_profit, execution_type,
			status, return_reason, cancel_reason, executed_by, bank_account_id, payment_proof_ref,
			created_by, version, created_at, updated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29
		)`,
		g.ID, g.MinoristaID, g.TransferencistaID, g.BeneficiaryName, g.BeneficiaryID,
		g.BankID, g.BankCode, g.AccountNumber, g.Phone, g.AmountInput, g.CurrencyInput, g.AmountBs,
		g.RateID, g.BCVValueApplied, g.Commission, g.SystemProfit, g.MinoristaProfit, g.ExecutionType,
		g.Status, g.ReturnReason, g.CancelReason, g.ExecutedBy, g.BankAccountID, g.PaymentProofRef,
		g.CreatedBy, g.Version, g.CreatedAt, g.UpdatedAt, g.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapError(err))
	}
	return nil
}

func (r *GiroRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Giro, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+giroColumns+` FROM giros WHERE id = $1`, id,
	)
	g, err := scanGiro(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return g, nil
}

func (r *GiroRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Giro, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+giroColumns+` FROM giros WHERE id = $1 FOR UPDATE`, id,
	)
	g, err := scanGiro(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapError(err))
	}
	return g, nil
}

// Update persists the lifecycle fields of g. Pricing and profit columns are
// fixed at creation and are not part of the statement. g.Version must already
// be incremented past the locked row's version.
func (r *GiroRepository) Update(ctx context.Context, tx *sql.Tx, g *domain.Giro) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE giros SET
			transferencista_id = $1, status = $2, return_reason = $3, cancel_reason = $4,
			executed_by = $5, bank_account_id = $6, payment_proof_ref = $7,
			version = $8, updated_at = $9, completed_at = $10
		WHERE id = $11 AND version = $12`,
		g.TransferencistaID, g.Status, g.ReturnReason, g.CancelReason,
		g.ExecutedBy, g.BankAccountID, g.PaymentProofRef,
		g.Version, g.UpdatedAt, g.CompletedAt,
		g.ID, g.Version-1,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	return checkRowsAffected("Update", n, err, domain.ErrVersionConflict)
}

func (r *GiroRepository) List(ctx context.Context, f domain.GiroFilter) ([]domain.Giro, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.MinoristaID != nil {
		args = append(args, *f.MinoristaID)
		conds = append(conds, fmt.Sprintf("minorista_id = $%d", len(args)))
	}
	if f.TransferencistaID != nil {
		args = append(args, *f.TransferencistaID)
		conds = append(conds, fmt.Sprintf("transferencista_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM giros`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+giroColumns+` FROM giros`+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var giros []domain.Giro
	for rows.Next() {
		g, err := scanGiro(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		giros = append(giros, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return giros, total, nil
}

func scanGiro(s scanner) (*domain.Giro, error) {
	var g domain.Giro
	err := s.Scan(
		&g.ID, &g.MinoristaID, &g.TransferencistaID, &g.BeneficiaryName, &g.BeneficiaryID,
		&g.BankID, &g.BankCode, &g.AccountNumber, &g.Phone, &g.AmountInput, &g.CurrencyInput, &g.AmountBs,
		&g.RateID, &g.BCVValueApplied, &g.Commission, &g.SystemProfit, &g.MinoristaProfit, &g.ExecutionType,
		&g.Status, &g.ReturnReason, &g.CancelReason, &g.ExecutedBy, &g.BankAccountID, &g.PaymentProofRef,
		&g.CreatedBy, &g.Version, &g.CreatedAt, &g.UpdatedAt, &g.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
