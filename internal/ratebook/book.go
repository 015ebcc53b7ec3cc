// Package ratebook owns the append-only exchange-rate book that giros are
// priced against.
package ratebook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type RateRepository interface {
	Create(ctx context.Context, tx *sql.Tx, rate *domain.Rate) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rate, error)
	Latest(ctx context.Context) (*domain.Rate, error)
	List(ctx context.Context, limit, offset int) ([]domain.Rate, error)
}

type Quote struct {
	BuyRate  decimal.Decimal
	SellRate decimal.Decimal
	USD      decimal.Decimal
	BCV      decimal.Decimal
}

type Book struct {
	db    TxBeginner
	rates RateRepository
	now   func() time.Time
}

func NewBook(db TxBeginner, rates RateRepository) *Book {
	return &Book{db: db, rates: rates, now: time.Now}
}

// Current returns the latest published rate, or ErrRateNotFound when the
// book is empty.
func (b *Book) Current(ctx context.Context) (*domain.Rate, error) {
	rate, err := b.rates.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("Current: %w", err)
	}
	return rate, nil
}

func (b *Book) Get(ctx context.Context, id uuid.UUID) (*domain.Rate, error) {
	rate, err := b.rates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return rate, nil
}

func (b *Book) History(ctx context.Context, limit, offset int) ([]domain.Rate, error) {
	rates, err := b.rates.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return rates, nil
}

func (b *Book) Publish(ctx context.Context, q Quote, publishedBy uuid.UUID) (*domain.Rate, error) {
	rate, err := newRate(q, false, &publishedBy, b.now())
	if err != nil {
		return nil, fmt.Errorf("Publish: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Publish: %w", err)
	}
	defer tx.Rollback()

	if err := b.rates.Create(ctx, tx, rate); err != nil {
		return nil, fmt.Errorf("Publish: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Publish: commit: %w", err)
	}

	logging.FromContext(ctx).Info("rate published",
		"rate_id", rate.ID,
		"buy_rate", rate.BuyRate.String(),
		"sell_rate", rate.SellRate.String(),
		"bcv", rate.BCV.String(),
	)
	return rate, nil
}

// AppendCustom records a one-off rate for a single giro inside the caller's
// transaction. Custom rates never become the book's current rate.
func (b *Book) AppendCustom(ctx context.Context, tx *sql.Tx, q Quote, createdBy uuid.UUID) (*domain.Rate, error) {
	rate, err := newRate(q, true, &createdBy, b.now())
	if err != nil {
		return nil, fmt.Errorf("AppendCustom: %w", err)
	}
	if err := b.rates.Create(ctx, tx, rate); err != nil {
		return nil, fmt.Errorf("AppendCustom: %w", err)
	}
	return rate, nil
}

func newRate(q Quote, custom bool, createdBy *uuid.UUID, now time.Time) (*domain.Rate, error) {
	for _, v := range []decimal.Decimal{q.BuyRate, q.SellRate, q.USD, q.BCV} {
		if !v.IsPositive() {
			return nil, domain.ErrInvalidRate
		}
	}
	rate := &domain.Rate{
		ID:        uuid.New(),
		BuyRate:   domain.RoundRate(q.BuyRate),
		SellRate:  domain.RoundRate(q.SellRate),
		USD:       domain.RoundRate(q.USD),
		BCV:       domain.RoundRate(q.BCV),
		IsCustom:  custom,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	// a rate that rounds to zero at 4 dp is unusable as a divisor
	if !rate.BuyRate.IsPositive() || !rate.SellRate.IsPositive() || !rate.USD.IsPositive() || !rate.BCV.IsPositive() {
		return nil, domain.ErrInvalidRate
	}
	return rate, nil
}

// ToBs converts an input amount to bolívares at the given rate snapshot.
func ToBs(amount decimal.Decimal, currency domain.Currency, rate *domain.Rate) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("ToBs: %w", domain.ErrInvalidAmount)
	}
	if rate == nil {
		return decimal.Zero, fmt.Errorf("ToBs: %w", domain.ErrRateNotFound)
	}
	var bs decimal.Decimal
	switch currency {
	case domain.CurrencyVES:
		bs = amount
	case domain.CurrencyCOP:
		if !rate.SellRate.IsPositive() {
			return decimal.Zero, fmt.Errorf("ToBs: %w", domain.ErrInvalidRate)
		}
		bs = amount.Div(rate.SellRate)
	case domain.CurrencyUSD:
		bs = amount.Mul(rate.BCV)
	default:
		return decimal.Zero, fmt.Errorf("ToBs: %q: %w", currency, domain.ErrInvalidCurrency)
	}
	return domain.RoundMoney(bs), nil
}
