package domain

import "github.com/shopspring/decimal"

const (
	MoneyPlaces   = 2
	RatePlaces    = 4
	PercentPlaces = 4
)

var halfCent = decimal.New(5, -(MoneyPlaces + 1))

// RoundMoney rounds half up (toward positive infinity) at the cent boundary
// for signed amounts too, so -1.005 becomes -1.00.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Add(halfCent).RoundFloor(MoneyPlaces)
}

func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RatePlaces)
}

type Currency string

const (
	CurrencyVES Currency = "VES"
	CurrencyCOP Currency = "COP"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyVES, CurrencyCOP, CurrencyUSD:
		return true
	default:
		return false
	}
}
