package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func state(limit, avail, bal, debt string) domain.CreditState {
	return domain.CreditState{
		CreditLimit:     dec(limit),
		AvailableCredit: dec(avail),
		CreditBalance:   dec(bal),
		ExternalDebt:    dec(debt),
	}
}

func assertState(t *testing.T, want, got domain.CreditState) {
	t.Helper()
	assert.True(t, want.Equal(got), "want avail=%s bal=%s debt=%s, got avail=%s bal=%s debt=%s",
		want.AvailableCredit, want.CreditBalance, want.ExternalDebt,
		got.AvailableCredit, got.CreditBalance, got.ExternalDebt)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name      string
		before    domain.CreditState
		amount    string
		pct       string
		want      domain.CreditState
		wantUsed  string
		wantCons  string
		wantDebt  string
		wantPrft  string
		wantRemai string
	}{
		{
			name:      "overdraws into external debt",
			before:    state("100", "100", "0", "0"),
			amount:    "150",
			pct:       "0.05",
			want:      state("100", "0", "7.50", "50"),
			wantUsed:  "0",
			wantCons:  "100",
			wantDebt:  "50",
			wantPrft:  "7.50",
			wantRemai: "150",
		},
		{
			name:      "balance in favor first",
			before:    state("500", "500", "30", "0"),
			amount:    "100",
			pct:       "0.05",
			want:      state("500", "430", "5", "0"),
			wantUsed:  "30",
			wantCons:  "70",
			wantDebt:  "0",
			wantPrft:  "5",
			wantRemai: "70",
		},
		{
			name:      "fully covered by balance in favor",
			before:    state("500", "500", "200", "0"),
			amount:    "80",
			pct:       "0",
			want:      state("500", "500", "120", "0"),
			wantUsed:  "80",
			wantCons:  "0",
			wantDebt:  "0",
			wantPrft:  "0",
			wantRemai: "0",
		},
		{
			name:      "adds to existing debt",
			before:    state("100", "0", "0", "20"),
			amount:    "10",
			pct:       "0.05",
			want:      state("100", "0", "0.50", "30"),
			wantUsed:  "0",
			wantCons:  "0",
			wantDebt:  "10",
			wantPrft:  "0.50",
			wantRemai: "10",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := ApplyDiscount(tc.before, dec(tc.amount), dec(tc.pct))
			assertState(t, tc.want, a.After)
			assert.True(t, a.BalanceInFavorUsed.Equal(dec(tc.wantUsed)), "used %s", a.BalanceInFavorUsed)
			assert.True(t, a.CreditConsumed.Equal(dec(tc.wantCons)), "consumed %s", a.CreditConsumed)
			assert.True(t, a.DebtIncurred.Equal(dec(tc.wantDebt)), "debt %s", a.DebtIncurred)
			assert.True(t, a.ProfitEarned.Equal(dec(tc.wantPrft)), "profit %s", a.ProfitEarned)
			assert.True(t, a.Remaining.Equal(dec(tc.wantRemai)), "remaining %s", a.Remaining)
		})
	}
}

func TestApplyCredit(t *testing.T) {
	tests := []struct {
		name    string
		before  domain.CreditState
		amount  string
		want    domain.CreditState
		surplus string
	}{
		{name: "restores credit", before: state("100", "40", "0", "0"), amount: "50", want: state("100", "90", "0", "0"), surplus: "0"},
		{name: "pays debt first", before: state("100", "0", "0", "50"), amount: "80", want: state("100", "30", "0", "0"), surplus: "0"},
		{name: "partial debt payment", before: state("100", "0", "5", "50"), amount: "20", want: state("100", "0", "5", "30"), surplus: "0"},
		{name: "surplus to balance in favor", before: state("100", "90", "1", "0"), amount: "25", want: state("100", "100", "16", "0"), surplus: "15"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := ApplyCredit(tc.before, dec(tc.amount))
			assertState(t, tc.want, a.After)
			assert.True(t, a.Remaining.Equal(dec(tc.surplus)), "surplus %s", a.Remaining)
		})
	}
}

func TestApplyDebit(t *testing.T) {
	a := ApplyDebit(state("100", "30", "12", "0"), dec("45"))
	assertState(t, state("100", "0", "12", "15"), a.After)
	assert.True(t, a.CreditConsumed.Equal(dec("30")))
	assert.True(t, a.DebtIncurred.Equal(dec("15")))
}

func TestApplyReversal_UndoesDiscount(t *testing.T) {
	before := state("100", "100", "3", "0")
	d := ApplyDiscount(before, dec("150"), dec("0.05"))
	entry := discountEntry(dec("150"), d)

	r := ApplyReversal(d.After, entry)
	assertState(t, before, r.After)
}

func TestApplyReversal_AfterIntermediateRecharge(t *testing.T) {
	d := ApplyDiscount(state("100", "100", "0", "0"), dec("150"), dec("0.05"))
	recharged := ApplyCredit(d.After, dec("30"))

	r := ApplyReversal(recharged.After, discountEntry(dec("150"), d))

	// same as recharging 30 on the untouched account
	assertState(t, ApplyCredit(state("100", "100", "0", "0"), dec("30")).After, r.After)
}

func TestApplyReversal_ClawbackShortfall(t *testing.T) {
	d := ApplyDiscount(state("100", "100", "0", "0"), dec("40"), dec("0.05"))
	// rebate of 2 already spent by a later giro
	spent := ApplyDiscount(d.After, dec("2"), dec("0"))

	r := ApplyReversal(spent.After, discountEntry(dec("40"), d))

	assertState(t, state("100", "98", "0", "0"), r.After)
	assert.True(t, r.BalanceInFavorUsed.IsZero())
	assert.True(t, r.CreditConsumed.Equal(dec("2")))
}

func discountEntry(amount decimal.Decimal, a Allocation) *domain.MinoristaTransaction {
	return &domain.MinoristaTransaction{
		Type:               domain.MinoristaTransactionDiscount,
		Status:             domain.MinoristaTransactionPending,
		Amount:             amount,
		BalanceInFavorUsed: a.BalanceInFavorUsed,
		CreditConsumed:     decPtr(a.CreditConsumed),
		ProfitEarned:       decPtr(a.ProfitEarned),
	}
}

func TestAllocation_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := state("1000", "1000", "0", "0")
	var pending []*domain.MinoristaTransaction

	for i := 0; i < 2000; i++ {
		amount := decimal.New(rng.Int63n(60000)+1, -2)
		var a Allocation
		switch op := rng.Intn(4); op {
		case 0:
			a = ApplyDiscount(s, amount, dec("0.05"))
			pending = append(pending, discountEntry(amount, a))
		case 1:
			a = ApplyCredit(s, amount)
		case 2:
			a = ApplyDebit(s, amount)
		case 3:
			if len(pending) == 0 {
				continue
			}
			k := rng.Intn(len(pending))
			a = ApplyReversal(s, pending[k])
			pending = append(pending[:k], pending[k+1:]...)
		}
		assertState(t, s, a.Before)
		s = a.After

		require.False(t, s.CreditBalance.IsNegative(), "step %d: balance in favor %s", i, s.CreditBalance)
		require.False(t, s.AvailableCredit.IsNegative(), "step %d: available %s", i, s.AvailableCredit)
		require.True(t, s.AvailableCredit.LessThanOrEqual(s.CreditLimit), "step %d: available %s", i, s.AvailableCredit)
		require.False(t, s.ExternalDebt.IsNegative(), "step %d: debt %s", i, s.ExternalDebt)
		if s.ExternalDebt.IsPositive() {
			require.True(t, s.AvailableCredit.IsZero(), "step %d: debt with available credit", i)
		}
	}
}
