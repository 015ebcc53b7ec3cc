package giro

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
)

func TestCreate_PricesAndReservesDiscount(t *testing.T) {
	h := newHarness(t)
	h.expectCommit()

	g, err := h.svc.Create(context.Background(), h.request())
	require.NoError(t, err)

	assert.Equal(t, domain.GiroStatusPendiente, g.Status)
	assert.Equal(t, int64(1), g.Version)
	assert.Equal(t, 134, g.BankCode)
	assert.True(t, dec("26.32").Equal(g.AmountBs), g.AmountBs.String())
	assert.True(t, dec("20.00").Equal(g.Commission))
	assert.True(t, dec("50.00").Equal(g.MinoristaProfit))
	assert.True(t, g.SystemProfit.Add(g.MinoristaProfit).Equal(g.Commission))
	assert.True(t, dec("36.2000").Equal(g.BCVValueApplied))

	assert.Equal(t, []string{"reserve"}, h.recorder.ops())
	assert.True(t, dec("1000.00").Equal(h.recorder.calls[0].amount))

	require.Len(t, h.events.rows, 1)
	ev := h.events.rows[0]
	assert.Equal(t, domain.GiroEventTypeCreated, ev.EventType)
	assert.Nil(t, ev.FromStatus)
	assert.Equal(t, domain.GiroStatusPendiente, ev.ToStatus)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "26.32", payload["amount_bs"])

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, g.ID, h.notifier.events[0].GiroID)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCreate_WithoutMinoristaSkipsDiscount(t *testing.T) {
	h := newHarness(t)
	h.expectCommit()

	req := h.request()
	req.MinoristaID = nil
	g, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, g.MinoristaProfit.IsZero())
	assert.True(t, g.SystemProfit.Equal(g.Commission))
	assert.Empty(t, h.recorder.calls)
}

func TestCreate_CustomRate(t *testing.T) {
	h := newHarness(t)
	h.expectCommit()

	req := h.request()
	req.CurrencyInput = domain.CurrencyUSD
	req.AmountInput = dec("10.00")
	req.CustomRate = &ratebook.Quote{BuyRate: dec("1"), SellRate: dec("1"), USD: dec("1"), BCV: dec("40.5000")}
	g, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, dec("405.00").Equal(g.AmountBs), g.AmountBs.String())
	assert.NotEqual(t, h.rates.current.ID, g.RateID)
	assert.True(t, h.rates.byID[g.RateID].IsCustom)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"zero amount", func(r *CreateRequest) { r.AmountInput = decimal.Zero }, domain.ErrInvalidAmount},
		{"sub-cent amount", func(r *CreateRequest) { r.AmountInput = dec("1.005") }, domain.ErrInvalidAmount},
		{"bad currency", func(r *CreateRequest) { r.CurrencyInput = "EUR" }, domain.ErrInvalidCurrency},
		{"bad execution type", func(r *CreateRequest) { r.ExecutionType = "WIRE" }, domain.ErrInvalidExecutionType},
		{"missing beneficiary", func(r *CreateRequest) { r.BeneficiaryName = " " }, domain.ErrInvalidRequest},
		{"missing account", func(r *CreateRequest) { r.AccountNumber = "" }, domain.ErrInvalidRequest},
		{"missing actor", func(r *CreateRequest) { r.CreatedBy = uuid.Nil }, domain.ErrActorRequired},
		{"rate id and custom rate", func(r *CreateRequest) {
			id := uuid.New()
			r.RateID = &id
			r.CustomRate = &ratebook.Quote{}
		}, domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := h.request()
			tt.mutate(&req)

			_, err := h.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.giros.rows)
			require.NoError(t, h.mock.ExpectationsWereMet())
		})
	}
}

func TestCreate_UnknownRateID(t *testing.T) {
	h := newHarness(t)
	h.expectRollback()

	req := h.request()
	id := uuid.New()
	req.RateID = &id
	_, err := h.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrRateNotFound)
	assert.Empty(t, h.recorder.calls)
}

func TestCreate_AutoAssign(t *testing.T) {
	h := newHarness(t)
	h.expectCommit()
	h.expectCommit()

	req := h.request()
	req.AutoAssign = true
	g, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.GiroStatusAsignado, g.Status)
	require.NotNil(t, g.TransferencistaID)
	assert.Equal(t, h.agent.ID, *g.TransferencistaID)
	assert.Equal(t, h.agent.UserID, *g.ExecutedBy)
	assert.Len(t, h.events.rows, 2)
}

func TestCreate_AutoAssignWithoutAgentsStaysPending(t *testing.T) {
	h := newHarness(t)
	h.withDispatcher(fakeDispatcher{err: domain.ErrNoEligibleAgent})
	h.expectCommit()
	h.expectRollback()

	req := h.request()
	req.AutoAssign = true
	g, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.GiroStatusPendiente, g.Status)
	assert.Nil(t, g.TransferencistaID)
	assert.Equal(t, domain.GiroStatusPendiente, h.giros.rows[g.ID].Status)
}

func createAt(t *testing.T, h *harness, status domain.GiroStatus) *domain.Giro {
	t.Helper()
	ctx := context.Background()
	h.expectCommit()
	g, err := h.svc.Create(ctx, h.request())
	require.NoError(t, err)

	if status == domain.GiroStatusPendiente {
		return g
	}
	h.expectCommit()
	g, err = h.svc.Assign(ctx, g.ID, h.actor)
	require.NoError(t, err)
	if status == domain.GiroStatusAsignado {
		return g
	}
	h.expectCommit()
	g, err = h.svc.StartExecution(ctx, g.ID, h.actor)
	require.NoError(t, err)
	return g
}

func TestLifecycle_Complete(t *testing.T) {
	h := newHarness(t)
	g := createAt(t, h, domain.GiroStatusProcesando)

	ref := "REF-001"
	h.expectCommit()
	done, err := h.svc.Complete(context.Background(), CompleteRequest{
		GiroID:          g.ID,
		BankAccountID:   h.account.ID,
		Fee:             dec("1.50"),
		PaymentProofRef: &ref,
		Actor:           h.actor,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.GiroStatusCompletado, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, h.account.ID, *done.BankAccountID)
	assert.Equal(t, h.actor, *done.ExecutedBy)
	assert.Equal(t, int64(4), done.Version)
	assert.Equal(t, []string{"reserve", "settle"}, h.recorder.ops())

	require.NotNil(t, h.recorder.accountEntry)
	assert.Equal(t, domain.BankAccountWithdrawal, h.recorder.accountEntry.Type)
	assert.True(t, done.AmountBs.Equal(h.recorder.accountEntry.Amount))
	require.NotNil(t, h.recorder.bankEntry)
	assert.Equal(t, domain.BankTransactionOutflow, h.recorder.bankEntry.Type)
	assert.True(t, done.AmountBs.Add(dec("1.50")).Equal(h.recorder.bankEntry.Amount))
	assert.Equal(t, h.bank.ID, h.recorder.bankEntry.BankID)

	history, err := h.svc.History(context.Background(), g.ID)
	require.NoError(t, err)
	types := make([]domain.GiroEventType, len(history))
	for i, e := range history {
		types[i] = e.EventType
	}
	assert.Equal(t, []domain.GiroEventType{
		domain.GiroEventTypeCreated,
		domain.GiroEventTypeAssigned,
		domain.GiroEventTypeStarted,
		domain.GiroEventTypeCompleted,
	}, types)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestLifecycle_CompleteRejectsForeignAccount(t *testing.T) {
	h := newHarness(t)
	g := createAt(t, h, domain.GiroStatusProcesando)
	other := uuid.New()
	h.account.OwnerID = &other

	h.expectRollback()
	_, err := h.svc.Complete(context.Background(), CompleteRequest{
		GiroID:        g.ID,
		BankAccountID: h.account.ID,
		Actor:         h.actor,
	})
	assert.ErrorIs(t, err, domain.ErrAccountOwnerMismatch)
	assert.Equal(t, domain.GiroStatusProcesando, h.giros.rows[g.ID].Status)
}

func TestLifecycle_CompleteInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	g := createAt(t, h, domain.GiroStatusProcesando)
	h.recorder.accountErr = domain.ErrInsufficientFunds

	h.expectRollback()
	_, err := h.svc.Complete(context.Background(), CompleteRequest{
		GiroID:        g.ID,
		BankAccountID: h.account.ID,
		Actor:         h.actor,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.GiroStatusProcesando, h.giros.rows[g.ID].Status)
}

func TestLifecycle_StateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("start requires assignment", func(t *testing.T) {
		h := newHarness(t)
		g := createAt(t, h, domain.GiroStatusPendiente)
		h.expectRollback()
		_, err := h.svc.StartExecution(ctx, g.ID, h.actor)
		assert.ErrorIs(t, err, domain.ErrGiroNotInState)
	})

	t.Run("complete requires execution", func(t *testing.T) {
		h := newHarness(t)
		g := createAt(t, h, domain.GiroStatusAsignado)
		h.expectRollback()
		_, err := h.svc.Complete(ctx, CompleteRequest{GiroID: g.ID, BankAccountID: h.account.ID, Actor: h.actor})
		assert.ErrorIs(t, err, domain.ErrGiroNotInState)
	})

	t.Run("return requires execution", func(t *testing.T) {
		h := newHarness(t)
		g := createAt(t, h, domain.GiroStatusAsignado)
		h.expectRollback()
		_, err := h.svc.Return(ctx, g.ID, "wrong account", h.actor)
		assert.ErrorIs(t, err, domain.ErrGiroNotInState)
	})

	t.Run("return requires reason", func(t *testing.T) {
		h := newHarness(t)
		g := createAt(t, h, domain.GiroStatusProcesando)
		h.expectRollback()
		_, err := h.svc.Return(ctx, g.ID, "  ", h.actor)
		assert.ErrorIs(t, err, domain.ErrReturnReasonRequired)
		assert.Equal(t, domain.GiroStatusProcesando, h.giros.rows[g.ID].Status)
	})

	t.Run("assign without agents", func(t *testing.T) {
		h := newHarness(t)
		g := createAt(t, h, domain.GiroStatusPendiente)
		h.withDispatcher(fakeDispatcher{err: domain.ErrNoEligibleAgent})
		h.expectRollback()
		_, err := h.svc.Assign(ctx, g.ID, h.actor)
		assert.ErrorIs(t, err, domain.ErrNoEligibleAgent)
		assert.Equal(t, domain.GiroStatusPendiente, h.giros.rows[g.ID].Status)
	})

	t.Run("unknown giro", func(t *testing.T) {
		h := newHarness(t)
		h.expectRollback()
		_, err := h.svc.Cancel(ctx, uuid.New(), "", h.actor)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLifecycle_TerminalStateWinsOverInputErrors(t *testing.T) {
	ctx := context.Background()

	terminate := map[domain.GiroStatus]func(h *harness, id uuid.UUID) error{
		domain.GiroStatusCompletado: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Complete(ctx, CompleteRequest{GiroID: id, BankAccountID: h.account.ID, Actor: h.actor})
			return err
		},
		domain.GiroStatusCancelado: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Cancel(ctx, id, "customer request", h.actor)
			return err
		},
		domain.GiroStatusDevuelto: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Return(ctx, id, "account closed", h.actor)
			return err
		},
	}

	attempts := []struct {
		name string
		run  func(h *harness, id uuid.UUID) error
	}{
		{name: "assign", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Assign(ctx, id, h.actor)
			return err
		}},
		{name: "start execution", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.StartExecution(ctx, id, h.actor)
			return err
		}},
		{name: "complete without account", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Complete(ctx, CompleteRequest{GiroID: id, BankAccountID: uuid.Nil, Actor: h.actor})
			return err
		}},
		{name: "complete with negative fee", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Complete(ctx, CompleteRequest{GiroID: id, BankAccountID: h.account.ID, Fee: dec("-1"), Actor: h.actor})
			return err
		}},
		{name: "cancel", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Cancel(ctx, id, "", h.actor)
			return err
		}},
		{name: "return without reason", run: func(h *harness, id uuid.UUID) error {
			_, err := h.svc.Return(ctx, id, "", h.actor)
			return err
		}},
	}

	for status, finish := range terminate {
		for _, tc := range attempts {
			t.Run(string(status)+"/"+tc.name, func(t *testing.T) {
				h := newHarness(t)
				g := createAt(t, h, domain.GiroStatusProcesando)
				h.expectCommit()
				require.NoError(t, finish(h, g.ID))
				ops := h.recorder.ops()

				h.expectRollback()
				err := tc.run(h, g.ID)
				assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
				assert.NotErrorIs(t, err, domain.ErrValidationFailed)
				assert.Equal(t, status, h.giros.rows[g.ID].Status)
				assert.Equal(t, ops, h.recorder.ops())
				require.NoError(t, h.mock.ExpectationsWereMet())
			})
		}
	}
}

func TestLifecycle_CancelReversesOnce(t *testing.T) {
	for _, status := range []domain.GiroStatus{
		domain.GiroStatusPendiente,
		domain.GiroStatusAsignado,
		domain.GiroStatusProcesando,
	} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness(t)
			g := createAt(t, h, status)

			h.expectCommit()
			cancelled, err := h.svc.Cancel(context.Background(), g.ID, "customer request", h.actor)
			require.NoError(t, err)
			assert.Equal(t, domain.GiroStatusCancelado, cancelled.Status)
			require.NotNil(t, cancelled.CancelReason)
			assert.Equal(t, "customer request", *cancelled.CancelReason)

			h.expectRollback()
			_, err = h.svc.Cancel(context.Background(), g.ID, "again", h.actor)
			assert.ErrorIs(t, err, domain.ErrGiroTerminal)
			assert.Equal(t, []string{"reserve", "reverse"}, h.recorder.ops())
		})
	}
}

func TestLifecycle_Return(t *testing.T) {
	h := newHarness(t)
	g := createAt(t, h, domain.GiroStatusProcesando)

	h.expectCommit()
	returned, err := h.svc.Return(context.Background(), g.ID, "account closed", h.actor)
	require.NoError(t, err)

	assert.Equal(t, domain.GiroStatusDevuelto, returned.Status)
	assert.Equal(t, "account closed", *returned.ReturnReason)
	assert.Equal(t, []string{"reserve", "reverse"}, h.recorder.ops())
	assert.Nil(t, h.recorder.accountEntry)

	h.expectRollback()
	_, err = h.svc.Complete(context.Background(), CompleteRequest{GiroID: g.ID, BankAccountID: h.account.ID, Actor: h.actor})
	assert.True(t, errors.Is(err, domain.ErrGiroTerminal))
}

func TestLifecycle_NotifiesEachCommittedTransition(t *testing.T) {
	h := newHarness(t)
	g := createAt(t, h, domain.GiroStatusProcesando)

	h.expectCommit()
	_, err := h.svc.Cancel(context.Background(), g.ID, "", h.actor)
	require.NoError(t, err)

	h.expectRollback()
	_, _ = h.svc.Cancel(context.Background(), g.ID, "", h.actor)

	statuses := make([]domain.GiroStatus, len(h.notifier.events))
	for i, e := range h.notifier.events {
		statuses[i] = e.Status
	}
	assert.Equal(t, []domain.GiroStatus{
		domain.GiroStatusPendiente,
		domain.GiroStatusAsignado,
		domain.GiroStatusProcesando,
		domain.GiroStatusCancelado,
	}, statuses)
}
