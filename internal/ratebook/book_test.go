package ratebook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/repository"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestToBs(t *testing.T) {
	rate := &domain.Rate{BuyRate: dec("38"), SellRate: dec("40"), USD: dec("1"), BCV: dec("36.5123")}

	tests := []struct {
		name     string
		amount   string
		currency domain.Currency
		rate     *domain.Rate
		want     string
		wantErr  error
	}{
		{name: "VES is identity", amount: "1500.25", currency: domain.CurrencyVES, rate: rate, want: "1500.25"},
		{name: "COP divides by sell rate", amount: "1000", currency: domain.CurrencyCOP, rate: rate, want: "25.00"},
		{name: "COP rounds half up", amount: "1.8", currency: domain.CurrencyCOP, rate: rate, want: "0.05"},
		{name: "USD multiplies by bcv", amount: "10", currency: domain.CurrencyUSD, rate: rate, want: "365.12"},
		{name: "unknown currency", amount: "10", currency: "EUR", rate: rate, wantErr: domain.ErrInvalidCurrency},
		{name: "missing rate", amount: "10", currency: domain.CurrencyVES, wantErr: domain.ErrRateNotFound},
		{name: "negative amount", amount: "-1", currency: domain.CurrencyVES, rate: rate, wantErr: domain.ErrInvalidAmount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToBs(dec(tc.amount), tc.currency, tc.rate)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tc.want)), "got %s, want %s", got, tc.want)
		})
	}
}

func TestPublish(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := NewBook(db, repository.NewRateRepository(db))
	book.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	admin := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rates").
		WithArgs(sqlmock.AnyArg(), dec("38.1235"), dec("40"), dec("1"), dec("36.5"), false, admin, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rate, err := book.Publish(context.Background(), Quote{
		BuyRate:  dec("38.12345"),
		SellRate: dec("40"),
		USD:      dec("1"),
		BCV:      dec("36.5"),
	}, admin)
	require.NoError(t, err)
	assert.False(t, rate.IsCustom)
	assert.True(t, rate.BuyRate.Equal(dec("38.1235")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_RejectsNonPositiveRates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := NewBook(db, repository.NewRateRepository(db))

	for _, q := range []Quote{
		{BuyRate: dec("0"), SellRate: dec("40"), USD: dec("1"), BCV: dec("36")},
		{BuyRate: dec("38"), SellRate: dec("-40"), USD: dec("1"), BCV: dec("36")},
		{BuyRate: dec("38"), SellRate: dec("40"), USD: dec("0.00001"), BCV: dec("36")},
	} {
		_, err := book.Publish(context.Background(), q, uuid.New())
		require.ErrorIs(t, err, domain.ErrInvalidRate)
		require.ErrorIs(t, err, domain.ErrValidationFailed)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := NewBook(db, repository.NewRateRepository(db))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rates").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = book.Publish(context.Background(), Quote{BuyRate: dec("1"), SellRate: dec("1"), USD: dec("1"), BCV: dec("1")}, uuid.New())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrent_EmptyBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	book := NewBook(db, repository.NewRateRepository(db))

	mock.ExpectQuery("SELECT (.+) FROM rates WHERE is_custom = false").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = book.Current(context.Background())
	require.ErrorIs(t, err, domain.ErrRateNotFound)
	require.ErrorIs(t, err, domain.ErrPreconditionFailed)
}
