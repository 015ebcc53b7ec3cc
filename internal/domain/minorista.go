package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Minorista struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	BusinessName     string
	CreditLimit      decimal.Decimal
	AvailableCredit  decimal.Decimal
	CreditBalance    decimal.Decimal
	ExternalDebt     decimal.Decimal
	ProfitPercentage decimal.Decimal
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (m *Minorista) CreditState() CreditState {
	return CreditState{
		CreditLimit:     m.CreditLimit,
		AvailableCredit: m.AvailableCredit,
		CreditBalance:   m.CreditBalance,
		ExternalDebt:    m.ExternalDebt,
	}
}

// CreditState is the mutable part of a minorista account. ExternalDebt is
// the signed over-limit usage; it is only non-zero while AvailableCredit is 0.
type CreditState struct {
	CreditLimit     decimal.Decimal
	AvailableCredit decimal.Decimal
	CreditBalance   decimal.Decimal
	ExternalDebt    decimal.Decimal
}

// AccumulatedDebt is everything the minorista owes: consumed credit plus
// external debt.
func (s CreditState) AccumulatedDebt() decimal.Decimal {
	return s.CreditLimit.Sub(s.AvailableCredit).Add(s.ExternalDebt)
}

func (s CreditState) Equal(o CreditState) bool {
	return s.CreditLimit.Equal(o.CreditLimit) &&
		s.AvailableCredit.Equal(o.AvailableCredit) &&
		s.CreditBalance.Equal(o.CreditBalance) &&
		s.ExternalDebt.Equal(o.ExternalDebt)
}

type MinoristaTransactionType string

const (
	MinoristaTransactionRecharge   MinoristaTransactionType = "RECHARGE"
	MinoristaTransactionDiscount   MinoristaTransactionType = "DISCOUNT"
	MinoristaTransactionAdjustment MinoristaTransactionType = "ADJUSTMENT"
)

func (t MinoristaTransactionType) Validate() error {
	switch t {
	case MinoristaTransactionRecharge, MinoristaTransactionDiscount, MinoristaTransactionAdjustment:
		return nil
	default:
		return fmt.Errorf("transaction type %q: %w", t, ErrInvalidRequest)
	}
}

type MinoristaTransactionStatus string

const (
	MinoristaTransactionPending   MinoristaTransactionStatus = "PENDING"
	MinoristaTransactionCompleted MinoristaTransactionStatus = "COMPLETED"
	MinoristaTransactionCancelled MinoristaTransactionStatus = "CANCELLED"
)

// MinoristaTransaction is an append-only ledger entry. Only Status may change
// after insertion, and only away from PENDING.
type MinoristaTransaction struct {
	ID                      uuid.UUID
	MinoristaID             uuid.UUID
	GiroID                  *uuid.UUID
	ReversalOf              *uuid.UUID
	Type                    MinoristaTransactionType
	Status                  MinoristaTransactionStatus
	Amount                  decimal.Decimal
	PreviousAvailableCredit decimal.Decimal
	AvailableCredit         decimal.Decimal
	PreviousBalanceInFavor  decimal.Decimal
	CurrentBalanceInFavor   decimal.Decimal
	CreditConsumed          *decimal.Decimal
	ProfitEarned            *decimal.Decimal
	// ExternalDebt is the account's outstanding over-limit debt after this entry.
	ExternalDebt       decimal.Decimal
	AccumulatedDebt    decimal.Decimal
	BalanceInFavorUsed decimal.Decimal
	// RemainingBalance is the part of Amount not absorbed by the first
	// source: for debits what balance in favor did not cover, for credits
	// the surplus that overflowed into balance in favor.
	RemainingBalance decimal.Decimal
	Description      string
	CreatedBy        uuid.UUID
	Seq              int64
	CreatedAt        time.Time
}

// StateAfter projects the account state recorded by this entry.
func (t *MinoristaTransaction) StateAfter(creditLimit decimal.Decimal) CreditState {
	return CreditState{
		CreditLimit:     creditLimit,
		AvailableCredit: t.AvailableCredit,
		CreditBalance:   t.CurrentBalanceInFavor,
		ExternalDebt:    t.ExternalDebt,
	}
}
