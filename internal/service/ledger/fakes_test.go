package ledger

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type fakeStore struct {
	minoristas     map[uuid.UUID]*domain.Minorista
	entries        []*domain.MinoristaTransaction
	accounts       map[uuid.UUID]*domain.BankAccount
	accountEntries []*domain.BankAccountTransaction
	bankEntries    []*domain.BankTransaction
	seq            int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		minoristas: map[uuid.UUID]*domain.Minorista{},
		accounts:   map[uuid.UUID]*domain.BankAccount{},
	}
}

func (f *fakeStore) recorder() *Recorder {
	return NewRecorder(fakeMinoristas{f}, fakeEntries{f}, fakeAccounts{f}, fakeAccountEntries{f}, fakeBankEntries{f})
}

func (f *fakeStore) addMinorista(limit, pct string) *domain.Minorista {
	m := &domain.Minorista{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		CreditLimit:      dec(limit),
		AvailableCredit:  dec(limit),
		CreditBalance:    decimal.Zero,
		ExternalDebt:     decimal.Zero,
		ProfitPercentage: dec(pct),
		Version:          1,
	}
	f.minoristas[m.ID] = m
	return m
}

func (f *fakeStore) addAccount(balance string) *domain.BankAccount {
	owner := uuid.New()
	a := &domain.BankAccount{
		ID:        uuid.New(),
		BankID:    uuid.New(),
		OwnerType: domain.BankAccountOwnerTransferencista,
		OwnerID:   &owner,
		Balance:   dec(balance),
		Version:   1,
	}
	f.accounts[a.ID] = a
	return a
}

type fakeMinoristas struct{ f *fakeStore }

func (r fakeMinoristas) GetByID(_ context.Context, id uuid.UUID) (*domain.Minorista, error) {
	m, ok := r.f.minoristas[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeMinoristas) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Minorista, error) {
	return r.GetByID(ctx, id)
}

func (r fakeMinoristas) UpdateCredit(_ context.Context, _ *sql.Tx, id uuid.UUID, s domain.CreditState, newVersion int64, _ time.Time) error {
	m, ok := r.f.minoristas[id]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Version != newVersion-1 {
		return domain.ErrVersionConflict
	}
	m.AvailableCredit, m.CreditBalance, m.ExternalDebt, m.Version = s.AvailableCredit, s.CreditBalance, s.ExternalDebt, newVersion
	return nil
}

type fakeEntries struct{ f *fakeStore }

func (r fakeEntries) Create(_ context.Context, _ *sql.Tx, t *domain.MinoristaTransaction) error {
	for _, e := range r.f.entries {
		if t.GiroID != nil && e.GiroID != nil && *e.GiroID == *t.GiroID {
			return domain.ErrDuplicate
		}
	}
	r.f.seq++
	t.Seq = r.f.seq
	cp := *t
	r.f.entries = append(r.f.entries, &cp)
	return nil
}

func (r fakeEntries) GetByGiroIDForUpdate(_ context.Context, _ *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error) {
	for _, e := range r.f.entries {
		if e.GiroID != nil && *e.GiroID == giroID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r fakeEntries) UpdateStatus(_ context.Context, _ *sql.Tx, id uuid.UUID, status domain.MinoristaTransactionStatus) error {
	for _, e := range r.f.entries {
		if e.ID == id {
			if e.Status != domain.MinoristaTransactionPending {
				return domain.ErrEntryNotPending
			}
			e.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r fakeEntries) LatestEffective(_ context.Context, _ *sql.Tx, minoristaID uuid.UUID) (*domain.MinoristaTransaction, error) {
	var latest *domain.MinoristaTransaction
	for _, e := range r.f.entries {
		if e.MinoristaID == minoristaID && e.Status != domain.MinoristaTransactionCancelled {
			if latest == nil || e.Seq > latest.Seq {
				latest = e
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r fakeEntries) ListByMinorista(_ context.Context, minoristaID uuid.UUID, limit, offset int) ([]domain.MinoristaTransaction, int, error) {
	var out []domain.MinoristaTransaction
	for _, e := range r.f.entries {
		if e.MinoristaID == minoristaID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type fakeAccounts struct{ f *fakeStore }

func (r fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	a, ok := r.f.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r fakeAccounts) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.BankAccount, error) {
	return r.GetByID(ctx, id)
}

func (r fakeAccounts) UpdateBalance(_ context.Context, _ *sql.Tx, id uuid.UUID, balance decimal.Decimal, newVersion int64, _ time.Time) error {
	a := r.f.accounts[id]
	if a.Version != newVersion-1 {
		return domain.ErrVersionConflict
	}
	a.Balance, a.Version = balance, newVersion
	return nil
}

type fakeAccountEntries struct{ f *fakeStore }

func (r fakeAccountEntries) Create(_ context.Context, _ *sql.Tx, t *domain.BankAccountTransaction) error {
	r.f.seq++
	t.Seq = r.f.seq
	cp := *t
	r.f.accountEntries = append(r.f.accountEntries, &cp)
	return nil
}

func (r fakeAccountEntries) ListByAccount(_ context.Context, accountID uuid.UUID, _, _ int) ([]domain.BankAccountTransaction, int, error) {
	var out []domain.BankAccountTransaction
	for _, e := range r.f.accountEntries {
		if e.BankAccountID == accountID {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

type fakeBankEntries struct{ f *fakeStore }

func (r fakeBankEntries) Create(_ context.Context, _ *sql.Tx, t *domain.BankTransaction) error {
	cp := *t
	r.f.bankEntries = append(r.f.bankEntries, &cp)
	return nil
}

func (r fakeBankEntries) ListByBank(_ context.Context, bankID uuid.UUID, _, _ int) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	for _, e := range r.f.bankEntries {
		if e.BankID == bankID {
			out = append(out, *e)
		}
	}
	return out, nil
}
