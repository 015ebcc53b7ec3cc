package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate is a Rate Book entry. Buy and sell rates are quoted in COP per VES,
// USD and BCV in their own quote units. Entries are append-only.
type Rate struct {
	ID        uuid.UUID
	BuyRate   decimal.Decimal
	SellRate  decimal.Decimal
	USD       decimal.Decimal
	BCV       decimal.Decimal
	IsCustom  bool
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}
