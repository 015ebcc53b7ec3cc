package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Bank struct {
	ID        uuid.UUID
	Name      string
	Code      int
	Currency  Currency
	CreatedAt time.Time
}

type BankAccountOwnerType string

const (
	BankAccountOwnerPlatform        BankAccountOwnerType = "PLATFORM"
	BankAccountOwnerTransferencista BankAccountOwnerType = "TRANSFERENCISTA"
)

func (o BankAccountOwnerType) IsValid() bool {
	switch o {
	case BankAccountOwnerPlatform, BankAccountOwnerTransferencista:
		return true
	default:
		return false
	}
}

type BankAccountType string

const (
	BankAccountTypeAhorros   BankAccountType = "AHORROS"
	BankAccountTypeCorriente BankAccountType = "CORRIENTE"
)

func (t BankAccountType) IsValid() bool {
	switch t {
	case BankAccountTypeAhorros, BankAccountTypeCorriente:
		return true
	default:
		return false
	}
}

type BankAccount struct {
	ID            uuid.UUID
	BankID        uuid.UUID
	OwnerType     BankAccountOwnerType
	OwnerID       *uuid.UUID
	AccountNumber *string
	AccountHolder string
	AccountType   BankAccountType
	Balance       decimal.Decimal
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwnedBy reports whether the account belongs to the given transferencista.
func (a *BankAccount) OwnedBy(transferencistaID uuid.UUID) bool {
	switch a.OwnerType {
	case BankAccountOwnerTransferencista:
		return a.OwnerID != nil && *a.OwnerID == transferencistaID
	case BankAccountOwnerPlatform:
		return false
	default:
		return false
	}
}

type BankAccountTransactionType string

const (
	BankAccountDeposit    BankAccountTransactionType = "DEPOSIT"
	BankAccountWithdrawal BankAccountTransactionType = "WITHDRAWAL"
	BankAccountAdjustment BankAccountTransactionType = "ADJUSTMENT"
)

// Apply returns the balance after posting amount and fee on previous.
// Deposits and withdrawals take a positive amount; adjustments are signed.
// The fee is always charged against the account.
func (t BankAccountTransactionType) Apply(previous, amount, fee decimal.Decimal) (decimal.Decimal, error) {
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("fee: %w", ErrInvalidAmount)
	}
	switch t {
	case BankAccountDeposit:
		if !amount.IsPositive() {
			return decimal.Zero, fmt.Errorf("deposit: %w", ErrInvalidAmount)
		}
		return previous.Add(amount).Sub(fee), nil
	case BankAccountWithdrawal:
		if !amount.IsPositive() {
			return decimal.Zero, fmt.Errorf("withdrawal: %w", ErrInvalidAmount)
		}
		return previous.Sub(amount).Sub(fee), nil
	case BankAccountAdjustment:
		if amount.IsZero() {
			return decimal.Zero, fmt.Errorf("adjustment: %w", ErrInvalidAmount)
		}
		return previous.Add(amount).Sub(fee), nil
	default:
		return decimal.Zero, fmt.Errorf("bank account transaction type %q: %w", t, ErrInvalidRequest)
	}
}

type BankAccountTransaction struct {
	ID              uuid.UUID
	BankAccountID   uuid.UUID
	GiroID          *uuid.UUID
	Type            BankAccountTransactionType
	Amount          decimal.Decimal
	Fee             decimal.Decimal
	PreviousBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	Reference       *string
	Description     string
	CreatedBy       uuid.UUID
	Seq             int64
	CreatedAt       time.Time
}

type BankTransactionType string

const (
	BankTransactionInflow  BankTransactionType = "INFLOW"
	BankTransactionOutflow BankTransactionType = "OUTFLOW"
	BankTransactionNote    BankTransactionType = "NOTE"
)

func (t BankTransactionType) Validate(amount decimal.Decimal) error {
	switch t {
	case BankTransactionInflow, BankTransactionOutflow:
		if !amount.IsPositive() {
			return fmt.Errorf("%s: %w", t, ErrInvalidAmount)
		}
		return nil
	case BankTransactionNote:
		if amount.IsNegative() {
			return fmt.Errorf("%s: %w", t, ErrInvalidAmount)
		}
		return nil
	default:
		return fmt.Errorf("bank transaction type %q: %w", t, ErrInvalidRequest)
	}
}

// BankTransaction is a platform cash-flow record. It carries no balance snapshot.
type BankTransaction struct {
	ID          uuid.UUID
	BankID      uuid.UUID
	GiroID      *uuid.UUID
	Type        BankTransactionType
	Amount      decimal.Decimal
	Description string
	Reference   *string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}
