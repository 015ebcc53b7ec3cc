package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Service runs standalone ledger operations, each in its own transaction.
// Giro-driven entries go through the Recorder inside the giro's transaction.
type Service struct {
	db       TxBeginner
	recorder *Recorder
}

func NewService(db TxBeginner, recorder *Recorder) *Service {
	return &Service{db: db, recorder: recorder}
}

type RechargeRequest struct {
	MinoristaID uuid.UUID
	Amount      decimal.Decimal
	Description string
	CreatedBy   uuid.UUID
}

type AdjustmentRequest struct {
	MinoristaID uuid.UUID
	// Amount is signed: positive credits the minorista, negative debits.
	Amount      decimal.Decimal
	Description string
	CreatedBy   uuid.UUID
}

func (s *Service) Recharge(ctx context.Context, req RechargeRequest) (*domain.MinoristaTransaction, error) {
	if req.CreatedBy == uuid.Nil {
		return nil, fmt.Errorf("Recharge: %w", domain.ErrActorRequired)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("Recharge: %w", domain.ErrInvalidAmount)
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = "recharge"
	}

	var entry *domain.MinoristaTransaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = s.recorder.Credit(ctx, tx, req.MinoristaID, domain.MinoristaTransactionRecharge, req.Amount, desc, req.CreatedBy)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Recharge: %w", err)
	}
	return entry, nil
}

// Adjust books a manual correction. It must name the authorizing user and
// carry a description.
func (s *Service) Adjust(ctx context.Context, req AdjustmentRequest) (*domain.MinoristaTransaction, error) {
	if req.CreatedBy == uuid.Nil {
		return nil, fmt.Errorf("Adjust: %w", domain.ErrActorRequired)
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, fmt.Errorf("Adjust: %w", domain.ErrDescriptionRequired)
	}
	// Round the signed amount before splitting on sign so a debit rounds
	// the same way as the equivalent credit.
	amount := domain.RoundMoney(req.Amount)
	if amount.IsZero() {
		return nil, fmt.Errorf("Adjust: %w", domain.ErrInvalidAmount)
	}

	var entry *domain.MinoristaTransaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if amount.IsPositive() {
			entry, err = s.recorder.Credit(ctx, tx, req.MinoristaID, domain.MinoristaTransactionAdjustment, amount, desc, req.CreatedBy)
		} else {
			entry, err = s.recorder.Debit(ctx, tx, req.MinoristaID, amount.Neg(), desc, req.CreatedBy)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}
	return entry, nil
}

func (s *Service) PostBankAccountEntry(ctx context.Context, in BankAccountEntry) (*domain.BankAccountTransaction, error) {
	if in.CreatedBy == uuid.Nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", domain.ErrActorRequired)
	}
	var entry *domain.BankAccountTransaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = s.recorder.PostBankAccountEntry(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", err)
	}
	return entry, nil
}

func (s *Service) PostBankTransaction(ctx context.Context, t *domain.BankTransaction) error {
	if t.CreatedBy == uuid.Nil {
		return fmt.Errorf("PostBankTransaction: %w", domain.ErrActorRequired)
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.recorder.PostBankTransaction(ctx, tx, t)
	})
	if err != nil {
		return fmt.Errorf("PostBankTransaction: %w", err)
	}
	return nil
}

func (s *Service) Reconcile(ctx context.Context, minoristaID uuid.UUID) (*Drift, error) {
	var d *Drift
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		d, err = s.recorder.Reconcile(ctx, tx, minoristaID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	return d, nil
}

func (s *Service) MinoristaTransactions(ctx context.Context, minoristaID uuid.UUID, limit, offset int) ([]domain.MinoristaTransaction, int, error) {
	if _, err := s.recorder.minoristas.GetByID(ctx, minoristaID); err != nil {
		return nil, 0, fmt.Errorf("MinoristaTransactions: %w", err)
	}
	entries, total, err := s.recorder.entries.ListByMinorista(ctx, minoristaID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("MinoristaTransactions: %w", err)
	}
	return entries, total, nil
}

func (s *Service) BankAccountEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.BankAccountTransaction, int, error) {
	if _, err := s.recorder.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("BankAccountEntries: %w", err)
	}
	entries, total, err := s.recorder.accountEntries.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("BankAccountEntries: %w", err)
	}
	return entries, total, nil
}

func (s *Service) BankTransactions(ctx context.Context, bankID uuid.UUID, limit, offset int) ([]domain.BankTransaction, error) {
	entries, err := s.recorder.bankEntries.ListByBank(ctx, bankID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("BankTransactions: %w", err)
	}
	return entries, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
