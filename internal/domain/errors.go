package domain

import (
	"errors"
	"fmt"
)

// Categories. Every specific error below wraps exactly one of these so callers
// can branch on either the specific error or its category with errors.Is.
var (
	ErrValidationFailed       = errors.New("validation failed")
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
	ErrNotFound               = errors.New("not found")
)

var (
	ErrInvalidAmount        = fmt.Errorf("amount must be greater than zero: %w", ErrValidationFailed)
	ErrInvalidCurrency      = fmt.Errorf("invalid currency: %w", ErrValidationFailed)
	ErrInvalidExecutionType = fmt.Errorf("invalid execution type: %w", ErrValidationFailed)
	ErrInvalidRate          = fmt.Errorf("rates must be greater than zero: %w", ErrValidationFailed)
	ErrInvalidRequest       = fmt.Errorf("invalid request: %w", ErrValidationFailed)
	ErrReturnReasonRequired = fmt.Errorf("return reason required: %w", ErrValidationFailed)
	ErrDescriptionRequired  = fmt.Errorf("description required: %w", ErrValidationFailed)
	ErrActorRequired        = fmt.Errorf("authorizing user required: %w", ErrValidationFailed)

	ErrRateNotFound         = fmt.Errorf("no rate snapshot available: %w", ErrPreconditionFailed)
	ErrNoEligibleAgent      = fmt.Errorf("no eligible agent for bank: %w", ErrPreconditionFailed)
	ErrNoAssignedAgent      = fmt.Errorf("giro has no assigned agent: %w", ErrPreconditionFailed)
	ErrGiroNotInState       = fmt.Errorf("giro state does not permit this operation: %w", ErrPreconditionFailed)
	ErrInsufficientFunds    = fmt.Errorf("insufficient funds: %w", ErrPreconditionFailed)
	ErrAccountOwnerMismatch = fmt.Errorf("bank account does not belong to the executing agent: %w", ErrPreconditionFailed)
	ErrDuplicate            = fmt.Errorf("duplicate record: %w", ErrPreconditionFailed)

	ErrGiroTerminal    = fmt.Errorf("giro already in terminal state: %w", ErrInvalidStateTransition)
	ErrEntryNotPending = fmt.Errorf("ledger entry is no longer pending: %w", ErrInvalidStateTransition)

	ErrVersionConflict = fmt.Errorf("optimistic lock conflict: %w", ErrConcurrencyConflict)
)
