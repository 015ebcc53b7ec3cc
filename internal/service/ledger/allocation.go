package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/profit"
)

// Allocation is the outcome of applying one movement to a minorista's
// credit state. Before and After are complete snapshots.
type Allocation struct {
	Before             domain.CreditState
	After              domain.CreditState
	BalanceInFavorUsed decimal.Decimal
	CreditConsumed     decimal.Decimal
	DebtIncurred       decimal.Decimal
	ProfitEarned       decimal.Decimal
	Remaining          decimal.Decimal
}

// ApplyDiscount consumes amount from balance in favor, then available
// credit, and books whatever is left as external debt. The minorista's
// rebate is credited to balance in favor afterwards.
func ApplyDiscount(s domain.CreditState, amount, profitPct decimal.Decimal) Allocation {
	a := Allocation{Before: s, After: s}

	a.BalanceInFavorUsed = minDec(nonNeg(s.CreditBalance), amount)
	rest := amount.Sub(a.BalanceInFavorUsed)
	a.Remaining = rest

	a.CreditConsumed = minDec(nonNeg(s.AvailableCredit), rest)
	a.DebtIncurred = rest.Sub(a.CreditConsumed)
	a.ProfitEarned = profit.MinoristaShare(amount, profitPct)

	a.After.CreditBalance = s.CreditBalance.Sub(a.BalanceInFavorUsed).Add(a.ProfitEarned)
	a.After.AvailableCredit = s.AvailableCredit.Sub(a.CreditConsumed)
	a.After.ExternalDebt = s.ExternalDebt.Add(a.DebtIncurred)
	return a
}

// ApplyCredit settles external debt first, then restores available credit
// up to the limit. Any surplus becomes balance in favor and is reported as
// Remaining.
func ApplyCredit(s domain.CreditState, amount decimal.Decimal) Allocation {
	a := Allocation{Before: s}
	a.After = credit(s, amount, &a.Remaining)
	return a
}

// ApplyDebit consumes available credit down to zero and books the rest as
// external debt. Balance in favor is not touched.
func ApplyDebit(s domain.CreditState, amount decimal.Decimal) Allocation {
	a := Allocation{Before: s, After: s}
	a.CreditConsumed = minDec(nonNeg(s.AvailableCredit), amount)
	a.DebtIncurred = amount.Sub(a.CreditConsumed)
	a.Remaining = amount
	a.After.AvailableCredit = s.AvailableCredit.Sub(a.CreditConsumed)
	a.After.ExternalDebt = s.ExternalDebt.Add(a.DebtIncurred)
	return a
}

// ApplyReversal undoes a discount against the current state: the balance in
// favor it used is restored, the credit and debt it consumed are credited
// back, and the rebate it paid is clawed back from balance in favor first.
// Applied directly after the discount it yields the discount's Before state.
func ApplyReversal(s domain.CreditState, discount *domain.MinoristaTransaction) Allocation {
	a := Allocation{Before: s}

	used := discount.BalanceInFavorUsed
	consumed := discount.Amount.Sub(used)
	rebate := decimal.Zero
	if discount.ProfitEarned != nil {
		rebate = *discount.ProfitEarned
	}

	next := s
	next.CreditBalance = next.CreditBalance.Add(used)
	var surplus decimal.Decimal
	next = credit(next, consumed, &surplus)

	fromBalance := minDec(nonNeg(next.CreditBalance), rebate)
	next.CreditBalance = next.CreditBalance.Sub(fromBalance)
	shortfall := rebate.Sub(fromBalance)
	if shortfall.IsPositive() {
		d := ApplyDebit(next, shortfall)
		next = d.After
		a.CreditConsumed = d.CreditConsumed
		a.DebtIncurred = d.DebtIncurred
	}

	a.BalanceInFavorUsed = fromBalance
	a.Remaining = surplus
	a.After = next
	return a
}

func credit(s domain.CreditState, amount decimal.Decimal, surplus *decimal.Decimal) domain.CreditState {
	out := s
	payDebt := minDec(nonNeg(s.ExternalDebt), amount)
	out.ExternalDebt = s.ExternalDebt.Sub(payDebt)
	rest := amount.Sub(payDebt)

	room := nonNeg(s.CreditLimit.Sub(s.AvailableCredit))
	raise := minDec(room, rest)
	out.AvailableCredit = s.AvailableCredit.Add(raise)

	*surplus = rest.Sub(raise)
	out.CreditBalance = s.CreditBalance.Add(*surplus)
	return out
}

func minDec(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func nonNeg(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
