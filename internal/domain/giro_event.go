package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GiroEventType string

const (
	GiroEventTypeCreated   GiroEventType = "created"
	GiroEventTypeAssigned  GiroEventType = "assigned"
	GiroEventTypeStarted   GiroEventType = "started"
	GiroEventTypeCompleted GiroEventType = "completed"
	GiroEventTypeCancelled GiroEventType = "cancelled"
	GiroEventTypeReturned  GiroEventType = "returned"
)

// GiroEvent is one row of a giro's append-only lifecycle history.
type GiroEvent struct {
	ID         uuid.UUID
	GiroID     uuid.UUID
	EventType  GiroEventType
	FromStatus *GiroStatus
	ToStatus   GiroStatus
	Actor      string
	Payload    json.RawMessage
	CreatedAt  time.Time
}
