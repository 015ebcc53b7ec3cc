package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExecutionType string

const (
	ExecutionTypeTransferencia ExecutionType = "TRANSFERENCIA"
	ExecutionTypePagoMovil     ExecutionType = "PAGO_MOVIL"
	ExecutionTypeEfectivo      ExecutionType = "EFECTIVO"
	ExecutionTypeZelle         ExecutionType = "ZELLE"
	ExecutionTypeOtros         ExecutionType = "OTROS"
	ExecutionTypeRecarga       ExecutionType = "RECARGA"
)

func AllExecutionTypes() []ExecutionType {
	return []ExecutionType{
		ExecutionTypeTransferencia,
		ExecutionTypePagoMovil,
		ExecutionTypeEfectivo,
		ExecutionTypeZelle,
		ExecutionTypeOtros,
		ExecutionTypeRecarga,
	}
}

func (t ExecutionType) IsValid() bool {
	_, err := t.RateMediated()
	return err == nil
}

// RateMediated reports whether the giro's profit comes from the buy/sell
// spread rather than from a commission.
func (t ExecutionType) RateMediated() (bool, error) {
	switch t {
	case ExecutionTypePagoMovil, ExecutionTypeRecarga:
		return true, nil
	case ExecutionTypeTransferencia, ExecutionTypeEfectivo, ExecutionTypeZelle, ExecutionTypeOtros:
		return false, nil
	default:
		return false, fmt.Errorf("%q: %w", t, ErrInvalidExecutionType)
	}
}

type GiroStatus string

const (
	GiroStatusPendiente  GiroStatus = "PENDIENTE"
	GiroStatusAsignado   GiroStatus = "ASIGNADO"
	GiroStatusProcesando GiroStatus = "PROCESANDO"
	GiroStatusCompletado GiroStatus = "COMPLETADO"
	GiroStatusCancelado  GiroStatus = "CANCELADO"
	GiroStatusDevuelto   GiroStatus = "DEVUELTO"
)

func AllGiroStatuses() []GiroStatus {
	return []GiroStatus{
		GiroStatusPendiente,
		GiroStatusAsignado,
		GiroStatusProcesando,
		GiroStatusCompletado,
		GiroStatusCancelado,
		GiroStatusDevuelto,
	}
}

func (s GiroStatus) IsTerminal() bool {
	switch s {
	case GiroStatusCompletado, GiroStatusCancelado, GiroStatusDevuelto:
		return true
	case GiroStatusPendiente, GiroStatusAsignado, GiroStatusProcesando:
		return false
	default:
		return false
	}
}

func (s GiroStatus) CanTransitionTo(next GiroStatus) bool {
	switch s {
	case GiroStatusPendiente:
		return next == GiroStatusAsignado || next == GiroStatusCancelado
	case GiroStatusAsignado:
		return next == GiroStatusProcesando || next == GiroStatusCancelado
	case GiroStatusProcesando:
		return next == GiroStatusCompletado || next == GiroStatusCancelado || next == GiroStatusDevuelto
	case GiroStatusCompletado, GiroStatusCancelado, GiroStatusDevuelto:
		return false
	default:
		return false
	}
}

// CheckTransition returns ErrGiroTerminal for any move out of a terminal
// state and ErrGiroNotInState for a move the current state does not allow.
func (s GiroStatus) CheckTransition(next GiroStatus) error {
	if s.IsTerminal() {
		return fmt.Errorf("%s -> %s: %w", s, next, ErrGiroTerminal)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", s, next, ErrGiroNotInState)
	}
	return nil
}

type Giro struct {
	ID                uuid.UUID
	MinoristaID       *uuid.UUID
	TransferencistaID *uuid.UUID
	BeneficiaryName   string
	BeneficiaryID     string
	BankID            uuid.UUID
	BankCode          int
	AccountNumber     string
	Phone             *string
	AmountInput       decimal.Decimal
	CurrencyInput     Currency
	AmountBs          decimal.Decimal
	RateID            uuid.UUID
	BCVValueApplied   decimal.Decimal
	Commission        decimal.Decimal
	SystemProfit      decimal.Decimal
	MinoristaProfit   decimal.Decimal
	ExecutionType     ExecutionType
	Status            GiroStatus
	ReturnReason      *string
	CancelReason      *string
	ExecutedBy        *uuid.UUID
	BankAccountID     *uuid.UUID
	PaymentProofRef   *string
	CreatedBy         uuid.UUID
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// Transition moves the giro to next, leaving it untouched on error.
func (g *Giro) Transition(next GiroStatus, now time.Time) error {
	if err := g.Status.CheckTransition(next); err != nil {
		return err
	}
	g.Status = next
	g.UpdatedAt = now
	if next == GiroStatusCompletado {
		g.CompletedAt = &now
	}
	return nil
}

type GiroFilter struct {
	MinoristaID       *uuid.UUID
	TransferencistaID *uuid.UUID
	Status            *GiroStatus
	Limit             int
	Offset            int
}
