// Package dispatch picks the transferencista that executes a giro.
package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.BankAssignment) error
	ListByBank(ctx context.Context, bankID uuid.UUID) ([]domain.BankAssignment, error)
	Pool(ctx context.Context, tx *sql.Tx, bankID uuid.UUID) ([]uuid.UUID, error)
	LockTracker(ctx context.Context, tx *sql.Tx) (*domain.AssignmentTracker, error)
	UpdateTracker(ctx context.Context, tx *sql.Tx, index int, now time.Time) error
}

// Dispatcher rotates through a bank's eligible agents using one global
// cursor row. The row lock serializes concurrent dispatches.
type Dispatcher struct {
	assignments AssignmentRepository
	now         func() time.Time
}

func NewDispatcher(assignments AssignmentRepository) *Dispatcher {
	return &Dispatcher{assignments: assignments, now: time.Now}
}

// Next selects the agent at (lastAssignedIndex+1) mod poolSize and advances
// the cursor in tx. The caller commits or rolls back both together.
func (d *Dispatcher) Next(ctx context.Context, tx *sql.Tx, bankID uuid.UUID) (uuid.UUID, error) {
	pool, err := d.assignments.Pool(ctx, tx, bankID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("Next: %w", err)
	}
	if len(pool) == 0 {
		return uuid.Nil, fmt.Errorf("Next: bank %s: %w", bankID, domain.ErrNoEligibleAgent)
	}

	tracker, err := d.assignments.LockTracker(ctx, tx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("Next: %w", err)
	}
	idx := NextIndex(tracker.LastAssignedIndex, len(pool))
	if err := d.assignments.UpdateTracker(ctx, tx, idx, d.now()); err != nil {
		return uuid.Nil, fmt.Errorf("Next: %w", err)
	}

	logging.FromContext(ctx).Debug("agent selected",
		"bank_id", bankID,
		"pool_size", len(pool),
		"index", idx,
		"transferencista_id", pool[idx],
	)
	return pool[idx], nil
}

func NextIndex(last, poolSize int) int {
	return ((last+1)%poolSize + poolSize) % poolSize
}

func (d *Dispatcher) AddAssignment(ctx context.Context, bankID, transferencistaID uuid.UUID, priority int) (*domain.BankAssignment, error) {
	if priority < 0 {
		return nil, fmt.Errorf("AddAssignment: priority must not be negative: %w", domain.ErrInvalidRequest)
	}
	a := &domain.BankAssignment{
		ID:                uuid.New(),
		BankID:            bankID,
		TransferencistaID: transferencistaID,
		Priority:          priority,
		CreatedAt:         d.now(),
	}
	if err := d.assignments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("AddAssignment: %w", err)
	}
	logging.FromContext(ctx).Info("bank assignment added",
		"bank_id", bankID,
		"transferencista_id", transferencistaID,
		"priority", priority,
	)
	return a, nil
}

func (d *Dispatcher) ListAssignments(ctx context.Context, bankID uuid.UUID) ([]domain.BankAssignment, error) {
	out, err := d.assignments.ListByBank(ctx, bankID)
	if err != nil {
		return nil, fmt.Errorf("ListAssignments: %w", err)
	}
	return out, nil
}
