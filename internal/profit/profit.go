// Package profit splits the earnings of a giro between the platform and the
// originating minorista.
package profit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type Input struct {
	AmountInput   decimal.Decimal
	Rate          *domain.Rate
	ExecutionType domain.ExecutionType
	// MinoristaPct is nil when the giro is not attributed to a minorista.
	MinoristaPct  *decimal.Decimal
	CommissionPct decimal.Decimal
}

type Result struct {
	Commission decimal.Decimal
	Total      decimal.Decimal
	Minorista  decimal.Decimal
	System     decimal.Decimal
}

// Calculate is pure. Rate-mediated execution types earn the buy/sell spread,
// the rest earn a flat commission on the input amount. Every output is
// rounded to cents and System is derived so that System+Minorista == Total
// holds exactly.
func Calculate(in Input) (Result, error) {
	if !in.AmountInput.IsPositive() {
		return Result{}, fmt.Errorf("Calculate: %w", domain.ErrInvalidAmount)
	}
	rateMediated, err := in.ExecutionType.RateMediated()
	if err != nil {
		return Result{}, fmt.Errorf("Calculate: %w", err)
	}

	var res Result
	if rateMediated {
		if in.Rate == nil {
			return Result{}, fmt.Errorf("Calculate: %w", domain.ErrRateNotFound)
		}
		if !in.Rate.SellRate.IsPositive() || !in.Rate.BuyRate.IsPositive() {
			return Result{}, fmt.Errorf("Calculate: %w", domain.ErrInvalidRate)
		}
		cost := in.AmountInput.Mul(in.Rate.BuyRate).Div(in.Rate.SellRate)
		res.Commission = decimal.Zero
		res.Total = domain.RoundMoney(in.AmountInput.Sub(cost))
	} else {
		res.Commission = domain.RoundMoney(in.AmountInput.Mul(in.CommissionPct))
		res.Total = res.Commission
	}

	res.Minorista = decimal.Zero
	if in.MinoristaPct != nil {
		res.Minorista = MinoristaShare(in.AmountInput, *in.MinoristaPct)
	}
	res.System = res.Total.Sub(res.Minorista)
	return res, nil
}

// MinoristaShare is the rebate credited to a minorista for consuming amount.
func MinoristaShare(amount, pct decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(amount.Mul(pct))
}
