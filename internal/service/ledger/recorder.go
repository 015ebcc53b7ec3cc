// Package ledger appends minorista and bank ledger entries and keeps the live
// account balances equal to the latest entry's snapshot.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type MinoristaRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Minorista, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Minorista, error)
	UpdateCredit(ctx context.Context, tx *sql.Tx, id uuid.UUID, state domain.CreditState, newVersion int64, now time.Time) error
}

type MinoristaTransactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.MinoristaTransaction) error
	GetByGiroIDForUpdate(ctx context.Context, tx *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.MinoristaTransactionStatus) error
	LatestEffective(ctx context.Context, tx *sql.Tx, minoristaID uuid.UUID) (*domain.MinoristaTransaction, error)
	ListByMinorista(ctx context.Context, minoristaID uuid.UUID, limit, offset int) ([]domain.MinoristaTransaction, int, error)
}

type BankAccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.BankAccount, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64, now time.Time) error
}

type BankAccountTransactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.BankAccountTransaction) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.BankAccountTransaction, int, error)
}

type BankTransactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.BankTransaction) error
	ListByBank(ctx context.Context, bankID uuid.UUID, limit, offset int) ([]domain.BankTransaction, error)
}

// Recorder performs ledger writes inside a caller-owned transaction. Every
// method locks the account row it mutates before reading the previous
// balance.
type Recorder struct {
	minoristas     MinoristaRepository
	entries        MinoristaTransactionRepository
	accounts       BankAccountRepository
	accountEntries BankAccountTransactionRepository
	bankEntries    BankTransactionRepository
	now            func() time.Time
}

func NewRecorder(
	minoristas MinoristaRepository,
	entries MinoristaTransactionRepository,
	accounts BankAccountRepository,
	accountEntries BankAccountTransactionRepository,
	bankEntries BankTransactionRepository,
) *Recorder {
	return &Recorder{
		minoristas:     minoristas,
		entries:        entries,
		accounts:       accounts,
		accountEntries: accountEntries,
		bankEntries:    bankEntries,
		now:            time.Now,
	}
}

// ReserveDiscount books a giro's consumption as a PENDING discount. Balances
// move immediately so later giros see the reduced credit.
func (r *Recorder) ReserveDiscount(ctx context.Context, tx *sql.Tx, minoristaID, giroID uuid.UUID, amount decimal.Decimal, createdBy uuid.UUID) (*domain.MinoristaTransaction, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("ReserveDiscount: %w", domain.ErrInvalidAmount)
	}
	m, err := r.minoristas.GetForUpdate(ctx, tx, minoristaID)
	if err != nil {
		return nil, fmt.Errorf("ReserveDiscount: %w", err)
	}

	alloc := ApplyDiscount(m.CreditState(), amount, m.ProfitPercentage)
	entry := newEntry(m, domain.MinoristaTransactionDiscount, domain.MinoristaTransactionPending, amount, alloc, r.now())
	entry.GiroID = &giroID
	entry.CreditConsumed = decPtr(alloc.CreditConsumed)
	entry.ProfitEarned = decPtr(alloc.ProfitEarned)
	entry.Description = fmt.Sprintf("giro %s", giroID)
	entry.CreatedBy = createdBy

	if err := r.post(ctx, tx, m, entry, alloc.After); err != nil {
		return nil, fmt.Errorf("ReserveDiscount: %w", err)
	}
	return entry, nil
}

// SettleDiscount marks the giro's discount COMPLETED. Balances were already
// moved by ReserveDiscount and are not touched again.
func (r *Recorder) SettleDiscount(ctx context.Context, tx *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error) {
	entry, err := r.entries.GetByGiroIDForUpdate(ctx, tx, giroID)
	if err != nil {
		return nil, fmt.Errorf("SettleDiscount: %w", err)
	}
	if err := r.entries.UpdateStatus(ctx, tx, entry.ID, domain.MinoristaTransactionCompleted); err != nil {
		return nil, fmt.Errorf("SettleDiscount: %w", err)
	}
	entry.Status = domain.MinoristaTransactionCompleted

	logging.FromContext(logging.WithMinorista(ctx, entry.MinoristaID)).Info("discount settled",
		"entry_id", entry.ID,
		"amount", entry.Amount,
	)
	return entry, nil
}

// ReverseDiscount cancels the giro's discount and appends a compensating
// adjustment. The original entry keeps its snapshot; only its status moves.
// A second call fails with ErrEntryNotPending, so a discount is never
// reversed twice.
func (r *Recorder) ReverseDiscount(ctx context.Context, tx *sql.Tx, giroID uuid.UUID, createdBy uuid.UUID, reason string) (*domain.MinoristaTransaction, error) {
	discount, err := r.entries.GetByGiroIDForUpdate(ctx, tx, giroID)
	if err != nil {
		return nil, fmt.Errorf("ReverseDiscount: %w", err)
	}
	if discount.Status != domain.MinoristaTransactionPending {
		return nil, fmt.Errorf("ReverseDiscount: %w", domain.ErrEntryNotPending)
	}
	m, err := r.minoristas.GetForUpdate(ctx, tx, discount.MinoristaID)
	if err != nil {
		return nil, fmt.Errorf("ReverseDiscount: %w", err)
	}
	if err := r.entries.UpdateStatus(ctx, tx, discount.ID, domain.MinoristaTransactionCancelled); err != nil {
		return nil, fmt.Errorf("ReverseDiscount: %w", err)
	}

	alloc := ApplyReversal(m.CreditState(), discount)
	entry := newEntry(m, domain.MinoristaTransactionAdjustment, domain.MinoristaTransactionCompleted, discount.Amount, alloc, r.now())
	entry.ReversalOf = &discount.ID
	entry.Description = fmt.Sprintf("reversal of giro %s: %s", giroID, reason)
	entry.CreatedBy = createdBy

	if err := r.post(ctx, tx, m, entry, alloc.After); err != nil {
		return nil, fmt.Errorf("ReverseDiscount: %w", err)
	}
	return entry, nil
}

// Credit books a RECHARGE, or a positive ADJUSTMENT, for the minorista.
func (r *Recorder) Credit(ctx context.Context, tx *sql.Tx, minoristaID uuid.UUID, typ domain.MinoristaTransactionType, amount decimal.Decimal, description string, createdBy uuid.UUID) (*domain.MinoristaTransaction, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Credit: %w", domain.ErrInvalidAmount)
	}
	switch typ {
	case domain.MinoristaTransactionRecharge, domain.MinoristaTransactionAdjustment:
	case domain.MinoristaTransactionDiscount:
		return nil, fmt.Errorf("Credit: discount is not a credit: %w", domain.ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("Credit: %w", typ.Validate())
	}
	m, err := r.minoristas.GetForUpdate(ctx, tx, minoristaID)
	if err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}

	alloc := ApplyCredit(m.CreditState(), amount)
	entry := newEntry(m, typ, domain.MinoristaTransactionCompleted, amount, alloc, r.now())
	entry.Description = description
	entry.CreatedBy = createdBy

	if err := r.post(ctx, tx, m, entry, alloc.After); err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}
	return entry, nil
}

// Debit books a negative ADJUSTMENT. amount is the positive magnitude; the
// stored entry amount is negative.
func (r *Recorder) Debit(ctx context.Context, tx *sql.Tx, minoristaID uuid.UUID, amount decimal.Decimal, description string, createdBy uuid.UUID) (*domain.MinoristaTransaction, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Debit: %w", domain.ErrInvalidAmount)
	}
	m, err := r.minoristas.GetForUpdate(ctx, tx, minoristaID)
	if err != nil {
		return nil, fmt.Errorf("Debit: %w", err)
	}

	alloc := ApplyDebit(m.CreditState(), amount)
	entry := newEntry(m, domain.MinoristaTransactionAdjustment, domain.MinoristaTransactionCompleted, amount.Neg(), alloc, r.now())
	entry.CreditConsumed = decPtr(alloc.CreditConsumed)
	entry.Description = description
	entry.CreatedBy = createdBy

	if err := r.post(ctx, tx, m, entry, alloc.After); err != nil {
		return nil, fmt.Errorf("Debit: %w", err)
	}
	return entry, nil
}

type BankAccountEntry struct {
	BankAccountID uuid.UUID
	GiroID        *uuid.UUID
	Type          domain.BankAccountTransactionType
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Reference     *string
	Description   string
	CreatedBy     uuid.UUID
}

// PostBankAccountEntry appends an entry and moves the account's live balance
// to its CurrentBalance. A result below zero fails with ErrInsufficientFunds.
func (r *Recorder) PostBankAccountEntry(ctx context.Context, tx *sql.Tx, in BankAccountEntry) (*domain.BankAccountTransaction, error) {
	account, err := r.accounts.GetForUpdate(ctx, tx, in.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", err)
	}
	amount := domain.RoundMoney(in.Amount)
	fee := domain.RoundMoney(in.Fee)
	current, err := in.Type.Apply(account.Balance, amount, fee)
	if err != nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", err)
	}
	if current.IsNegative() {
		return nil, fmt.Errorf("PostBankAccountEntry: balance %s, needs %s: %w",
			account.Balance, account.Balance.Sub(current), domain.ErrInsufficientFunds)
	}

	now := r.now()
	entry := &domain.BankAccountTransaction{
		ID:              uuid.New(),
		BankAccountID:   account.ID,
		GiroID:          in.GiroID,
		Type:            in.Type,
		Amount:          amount,
		Fee:             fee,
		PreviousBalance: account.Balance,
		CurrentBalance:  current,
		Reference:       in.Reference,
		Description:     in.Description,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
	}
	if err := r.accountEntries.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", err)
	}
	if err := r.accounts.UpdateBalance(ctx, tx, account.ID, current, account.Version+1, now); err != nil {
		return nil, fmt.Errorf("PostBankAccountEntry: %w", err)
	}

	logging.FromContext(ctx).Info("bank account entry posted",
		"bank_account_id", account.ID,
		"type", entry.Type,
		"amount", amount.String(),
		"fee", fee.String(),
		"balance", current.String(),
	)
	return entry, nil
}

func (r *Recorder) PostBankTransaction(ctx context.Context, tx *sql.Tx, t *domain.BankTransaction) error {
	t.Amount = domain.RoundMoney(t.Amount)
	if err := t.Type.Validate(t.Amount); err != nil {
		return fmt.Errorf("PostBankTransaction: %w", err)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}
	if err := r.bankEntries.Create(ctx, tx, t); err != nil {
		return fmt.Errorf("PostBankTransaction: %w", err)
	}
	return nil
}

type Drift struct {
	MinoristaID uuid.UUID
	Live        domain.CreditState
	Projected   domain.CreditState
	Repaired    bool
}

// Reconcile compares the live account fields with the snapshot of the latest
// non-cancelled entry and rewrites the account when they differ. An account
// with no entries projects to its opening state.
func (r *Recorder) Reconcile(ctx context.Context, tx *sql.Tx, minoristaID uuid.UUID) (*Drift, error) {
	m, err := r.minoristas.GetForUpdate(ctx, tx, minoristaID)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	projected := domain.CreditState{
		CreditLimit:     m.CreditLimit,
		AvailableCredit: m.CreditLimit,
		CreditBalance:   decimal.Zero,
		ExternalDebt:    decimal.Zero,
	}
	latest, err := r.entries.LatestEffective(ctx, tx, minoristaID)
	switch {
	case err == nil:
		projected = latest.StateAfter(m.CreditLimit)
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	d := &Drift{MinoristaID: m.ID, Live: m.CreditState(), Projected: projected}
	if d.Live.Equal(projected) {
		return d, nil
	}
	if err := r.minoristas.UpdateCredit(ctx, tx, m.ID, projected, m.Version+1, r.now()); err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	d.Repaired = true

	logging.FromContext(logging.WithMinorista(ctx, m.ID)).Warn("minorista balance drift repaired",
		"live_available_credit", d.Live.AvailableCredit,
		"projected_available_credit", projected.AvailableCredit,
		"live_credit_balance", d.Live.CreditBalance,
		"projected_credit_balance", projected.CreditBalance,
	)
	return d, nil
}

// post appends entry and copies its snapshot onto the account row.
func (r *Recorder) post(ctx context.Context, tx *sql.Tx, m *domain.Minorista, entry *domain.MinoristaTransaction, after domain.CreditState) error {
	if err := r.entries.Create(ctx, tx, entry); err != nil {
		return err
	}
	if err := r.minoristas.UpdateCredit(ctx, tx, m.ID, after, m.Version+1, entry.CreatedAt); err != nil {
		return err
	}
	m.AvailableCredit = after.AvailableCredit
	m.CreditBalance = after.CreditBalance
	m.ExternalDebt = after.ExternalDebt
	m.Version++

	logging.FromContext(logging.WithMinorista(ctx, m.ID)).Info("minorista entry posted",
		"entry_id", entry.ID,
		"type", entry.Type,
		"status", entry.Status,
		"amount", entry.Amount,
		"available_credit", after.AvailableCredit,
		"credit_balance", after.CreditBalance,
		"external_debt", after.ExternalDebt,
	)
	return nil
}

func newEntry(m *domain.Minorista, typ domain.MinoristaTransactionType, status domain.MinoristaTransactionStatus, amount decimal.Decimal, a Allocation, now time.Time) *domain.MinoristaTransaction {
	return &domain.MinoristaTransaction{
		ID:                      uuid.New(),
		MinoristaID:             m.ID,
		Type:                    typ,
		Status:                  status,
		Amount:                  amount,
		PreviousAvailableCredit: a.Before.AvailableCredit,
		AvailableCredit:         a.After.AvailableCredit,
		PreviousBalanceInFavor:  a.Before.CreditBalance,
		CurrentBalanceInFavor:   a.After.CreditBalance,
		ExternalDebt:            a.After.ExternalDebt,
		AccumulatedDebt:         a.After.AccumulatedDebt(),
		BalanceInFavorUsed:      a.BalanceInFavorUsed,
		RemainingBalance:        a.Remaining,
		CreatedAt:               now,
	}
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
