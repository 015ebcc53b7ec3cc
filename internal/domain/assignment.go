package domain

import (
	"time"

	"github.com/google/uuid"
)

type Transferencista struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Available bool
	CreatedAt time.Time
}

// BankAssignment makes a transferencista eligible for giros against a bank.
// Lower priority values are preferred; Seq breaks ties in insertion order.
type BankAssignment struct {
	ID                uuid.UUID
	BankID            uuid.UUID
	TransferencistaID uuid.UUID
	Priority          int
	Seq               int64
	CreatedAt         time.Time
}

// AssignmentTracker is the singleton round-robin cursor.
type AssignmentTracker struct {
	LastAssignedIndex int
	UpdatedAt         time.Time
}
