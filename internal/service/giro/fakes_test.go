package giro

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/notify"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
	"github.com/josh-kwaku/giro-backend/internal/service/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeGiros struct{ rows map[uuid.UUID]domain.Giro }

func (f *fakeGiros) Create(_ context.Context, _ *sql.Tx, g *domain.Giro) error {
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGiros) GetByID(_ context.Context, id uuid.UUID) (*domain.Giro, error) {
	g, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (f *fakeGiros) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Giro, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeGiros) Update(_ context.Context, _ *sql.Tx, g *domain.Giro) error {
	cur, ok := f.rows[g.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != g.Version-1 {
		return domain.ErrConcurrencyConflict
	}
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGiros) List(_ context.Context, _ domain.GiroFilter) ([]domain.Giro, int, error) {
	out := make([]domain.Giro, 0, len(f.rows))
	for _, g := range f.rows {
		out = append(out, g)
	}
	return out, len(out), nil
}

type fakeEvents struct{ rows []domain.GiroEvent }

func (f *fakeEvents) Create(_ context.Context, _ *sql.Tx, e *domain.GiroEvent) error {
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeEvents) GetByGiroID(_ context.Context, giroID uuid.UUID) ([]domain.GiroEvent, error) {
	var out []domain.GiroEvent
	for _, e := range f.rows {
		if e.GiroID == giroID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMinoristas struct {
	rows map[uuid.UUID]*domain.Minorista
}

func (f fakeMinoristas) GetForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*domain.Minorista, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

type fakeBanks struct{ rows map[uuid.UUID]*domain.Bank }

func (f fakeBanks) GetByID(_ context.Context, id uuid.UUID) (*domain.Bank, error) {
	b, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

type fakeAccounts struct {
	rows map[uuid.UUID]*domain.BankAccount
}

func (f fakeAccounts) GetForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*domain.BankAccount, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

type fakeAgents struct {
	rows map[uuid.UUID]*domain.Transferencista
}

func (f fakeAgents) GetByID(_ context.Context, id uuid.UUID) (*domain.Transferencista, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type fakeRates struct {
	current *domain.Rate
	byID    map[uuid.UUID]*domain.Rate
}

func (f *fakeRates) Current(context.Context) (*domain.Rate, error) {
	if f.current == nil {
		return nil, domain.ErrRateNotFound
	}
	return f.current, nil
}

func (f *fakeRates) Get(_ context.Context, id uuid.UUID) (*domain.Rate, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRates) AppendCustom(_ context.Context, _ *sql.Tx, q ratebook.Quote, _ uuid.UUID) (*domain.Rate, error) {
	r := &domain.Rate{ID: uuid.New(), BuyRate: q.BuyRate, SellRate: q.SellRate, USD: q.USD, BCV: q.BCV, IsCustom: true}
	f.byID[r.ID] = r
	return r, nil
}

type fakeDispatcher struct {
	next uuid.UUID
	err  error
}

func (f fakeDispatcher) Next(context.Context, *sql.Tx, uuid.UUID) (uuid.UUID, error) {
	return f.next, f.err
}

type recordedCall struct {
	op     string
	giroID uuid.UUID
	amount decimal.Decimal
}

type fakeRecorder struct {
	calls        []recordedCall
	accountEntry *ledger.BankAccountEntry
	bankEntry    *domain.BankTransaction
	accountErr   error
}

func (f *fakeRecorder) ReserveDiscount(_ context.Context, _ *sql.Tx, _, giroID uuid.UUID, amount decimal.Decimal, _ uuid.UUID) (*domain.MinoristaTransaction, error) {
	f.calls = append(f.calls, recordedCall{op: "reserve", giroID: giroID, amount: amount})
	return &domain.MinoristaTransaction{}, nil
}

func (f *fakeRecorder) SettleDiscount(_ context.Context, _ *sql.Tx, giroID uuid.UUID) (*domain.MinoristaTransaction, error) {
	f.calls = append(f.calls, recordedCall{op: "settle", giroID: giroID})
	return &domain.MinoristaTransaction{}, nil
}

func (f *fakeRecorder) ReverseDiscount(_ context.Context, _ *sql.Tx, giroID uuid.UUID, _ uuid.UUID, _ string) (*domain.MinoristaTransaction, error) {
	f.calls = append(f.calls, recordedCall{op: "reverse", giroID: giroID})
	return &domain.MinoristaTransaction{}, nil
}

func (f *fakeRecorder) PostBankAccountEntry(_ context.Context, _ *sql.Tx, in ledger.BankAccountEntry) (*domain.BankAccountTransaction, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	f.accountEntry = &in
	return &domain.BankAccountTransaction{
		BankAccountID: in.BankAccountID,
		Type:          in.Type,
		Amount:        in.Amount,
		Fee:           in.Fee,
	}, nil
}

func (f *fakeRecorder) PostBankTransaction(_ context.Context, _ *sql.Tx, t *domain.BankTransaction) error {
	f.bankEntry = t
	return nil
}

func (f *fakeRecorder) ops() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

type captureNotifier struct{ events []notify.Event }

func (c *captureNotifier) Notify(_ context.Context, e notify.Event) {
	c.events = append(c.events, e)
}

type harness struct {
	svc       *Service
	mock      sqlmock.Sqlmock
	giros     *fakeGiros
	events    *fakeEvents
	recorder  *fakeRecorder
	notifier  *captureNotifier
	rates     *fakeRates
	bank      *domain.Bank
	minorista *domain.Minorista
	agent     *domain.Transferencista
	account   *domain.BankAccount
	actor     uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bank := &domain.Bank{ID: uuid.New(), Name: "Banesco", Code: 134, Currency: domain.CurrencyVES}
	agent := &domain.Transferencista{ID: uuid.New(), UserID: uuid.New(), Name: "Ana", Available: true}
	account := &domain.BankAccount{
		ID:        uuid.New(),
		BankID:    bank.ID,
		OwnerType: domain.BankAccountOwnerTransferencista,
		OwnerID:   &agent.ID,
		Balance:   dec("100000.00"),
		Version:   1,
	}
	m := &domain.Minorista{
		ID:               uuid.New(),
		CreditLimit:      dec("1000.00"),
		AvailableCredit:  dec("1000.00"),
		ProfitPercentage: dec("0.05"),
		Version:          1,
	}
	rate := &domain.Rate{ID: uuid.New(), BuyRate: dec("40.0000"), SellRate: dec("38.0000"), USD: dec("36.5000"), BCV: dec("36.2000")}

	h := &harness{
		mock:      mock,
		giros:     &fakeGiros{rows: map[uuid.UUID]domain.Giro{}},
		events:    &fakeEvents{},
		recorder:  &fakeRecorder{},
		notifier:  &captureNotifier{},
		rates:     &fakeRates{current: rate, byID: map[uuid.UUID]*domain.Rate{rate.ID: rate}},
		bank:      bank,
		minorista: m,
		agent:     agent,
		account:   account,
		actor:     uuid.New(),
	}
	h.svc = NewService(Deps{
		DB:               db,
		Giros:            h.giros,
		Events:           h.events,
		Minoristas:       fakeMinoristas{rows: map[uuid.UUID]*domain.Minorista{m.ID: m}},
		Banks:            fakeBanks{rows: map[uuid.UUID]*domain.Bank{bank.ID: bank}},
		BankAccounts:     fakeAccounts{rows: map[uuid.UUID]*domain.BankAccount{account.ID: account}},
		Transferencistas: fakeAgents{rows: map[uuid.UUID]*domain.Transferencista{agent.ID: agent}},
		Rates:            h.rates,
		Dispatcher:       fakeDispatcher{next: agent.ID},
		Recorder:         h.recorder,
		Notifier:         h.notifier,
	}, dec("0.02"))
	return h
}

func (h *harness) withDispatcher(d fakeDispatcher) {
	h.svc.dispatcher = d
}

func (h *harness) expectCommit() {
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
}

func (h *harness) expectRollback() {
	h.mock.ExpectBegin()
	h.mock.ExpectRollback()
}

func (h *harness) request() CreateRequest {
	return CreateRequest{
		MinoristaID:     &h.minorista.ID,
		BeneficiaryName: "Maria Perez",
		BeneficiaryID:   "V-12345678",
		BankID:          h.bank.ID,
		AccountNumber:   "01340000000000000001",
		AmountInput:     dec("1000.00"),
		CurrencyInput:   domain.CurrencyCOP,
		ExecutionType:   domain.ExecutionTypeTransferencia,
		CreatedBy:       h.actor,
	}
}
