package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/service"
	"github.com/josh-kwaku/giro-backend/internal/service/ledger"
)

type minoristaAccounts interface {
	CreateMinorista(ctx context.Context, req service.CreateMinoristaRequest) (*domain.Minorista, error)
	GetMinorista(ctx context.Context, id uuid.UUID) (*domain.Minorista, error)
	GetMinoristaByUser(ctx context.Context, userID uuid.UUID) (*domain.Minorista, error)
}

type minoristaLedger interface {
	Recharge(ctx context.Context, req ledger.RechargeRequest) (*domain.MinoristaTransaction, error)
	Adjust(ctx context.Context, req ledger.AdjustmentRequest) (*domain.MinoristaTransaction, error)
	Reconcile(ctx context.Context, minoristaID uuid.UUID) (*ledger.Drift, error)
	MinoristaTransactions(ctx context.Context, minoristaID uuid.UUID, limit, offset int) ([]domain.MinoristaTransaction, int, error)
}

type MinoristaHandler struct {
	accounts minoristaAccounts
	ledger   minoristaLedger
}

func NewMinoristaHandler(accounts minoristaAccounts, ledger minoristaLedger) *MinoristaHandler {
	return &MinoristaHandler{accounts: accounts, ledger: ledger}
}

type createMinoristaRequest struct {
	UserID           uuid.UUID        `json:"user_id" validate:"required"`
	BusinessName     string           `json:"business_name" validate:"max=200"`
	CreditLimit      decimal.Decimal  `json:"credit_limit"`
	ProfitPercentage *decimal.Decimal `json:"profit_percentage"`
}

type ledgerEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

type minoristaDTO struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	BusinessName     string          `json:"business_name"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	AvailableCredit  decimal.Decimal `json:"available_credit"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`
	ExternalDebt     decimal.Decimal `json:"external_debt"`
	AccumulatedDebt  decimal.Decimal `json:"accumulated_debt"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toMinoristaDTO(m *domain.Minorista) minoristaDTO {
	return minoristaDTO{
		ID:               m.ID,
		UserID:           m.UserID,
		BusinessName:     m.BusinessName,
		CreditLimit:      m.CreditLimit,
		AvailableCredit:  m.AvailableCredit,
		CreditBalance:    m.CreditBalance,
		ExternalDebt:     m.ExternalDebt,
		AccumulatedDebt:  m.CreditState().AccumulatedDebt(),
		ProfitPercentage: m.ProfitPercentage,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type minoristaTransactionDTO struct {
	ID                      uuid.UUID        `json:"id"`
	GiroID                  *uuid.UUID       `json:"giro_id,omitempty"`
	ReversalOf              *uuid.UUID       `json:"reversal_of,omitempty"`
	Type                    string           `json:"type"`
	Status                  string           `json:"status"`
	Amount                  decimal.Decimal  `json:"amount"`
	PreviousAvailableCredit decimal.Decimal  `json:"previous_available_credit"`
	AvailableCredit         decimal.Decimal  `json:"available_credit"`
	PreviousBalanceInFavor  decimal.Decimal  `json:"previous_balance_in_favor"`
	CurrentBalanceInFavor   decimal.Decimal  `json:"current_balance_in_favor"`
	CreditConsumed          *decimal.Decimal `json:"credit_consumed,omitempty"`
	ProfitEarned            *decimal.Decimal `json:"profit_earned,omitempty"`
	ExternalDebt            decimal.Decimal  `json:"external_debt"`
	AccumulatedDebt         decimal.Decimal  `json:"accumulated_debt"`
	BalanceInFavorUsed      decimal.Decimal  `json:"balance_in_favor_used"`
	RemainingBalance        decimal.Decimal  `json:"remaining_balance"`
	Description             string           `json:"description"`
	CreatedBy               uuid.UUID        `json:"created_by"`
	CreatedAt               time.Time        `json:"created_at"`
}

func toMinoristaTransactionDTO(t *domain.MinoristaTransaction) minoristaTransactionDTO {
	return minoristaTransactionDTO{
		ID:                      t.ID,
		GiroID:                  t.GiroID,
		ReversalOf:              t.ReversalOf,
		Type:                    string(t.Type),
		Status:                  string(t.Status),
		Amount:                  t.Amount,
		PreviousAvailableCredit: t.PreviousAvailableCredit,
		AvailableCredit:         t.AvailableCredit,
		PreviousBalanceInFavor:  t.PreviousBalanceInFavor,
		CurrentBalanceInFavor:   t.CurrentBalanceInFavor,
		CreditConsumed:          t.CreditConsumed,
		ProfitEarned:            t.ProfitEarned,
		ExternalDebt:            t.ExternalDebt,
		AccumulatedDebt:         t.AccumulatedDebt,
		BalanceInFavorUsed:      t.BalanceInFavorUsed,
		RemainingBalance:        t.RemainingBalance,
		Description:             t.Description,
		CreatedBy:               t.CreatedBy,
		CreatedAt:               t.CreatedAt,
	}
}

func (h *MinoristaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMinoristaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	m, err := h.accounts.CreateMinorista(r.Context(), service.CreateMinoristaRequest{
		UserID:           req.UserID,
		BusinessName:     req.BusinessName,
		CreditLimit:      req.CreditLimit,
		ProfitPercentage: req.ProfitPercentage,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("minorista creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toMinoristaDTO(m))
}

func (h *MinoristaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.visibleMinorista(w, r)
	if !ok {
		return
	}
	m, err := h.accounts.GetMinorista(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toMinoristaDTO(m))
}

func (h *MinoristaHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req ledgerEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.ledger.Recharge(r.Context(), ledger.RechargeRequest{
		MinoristaID: id,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("recharge failed", "minorista_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toMinoristaTransactionDTO(entry))
}

func (h *MinoristaHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req ledgerEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.ledger.Adjust(r.Context(), ledger.AdjustmentRequest{
		MinoristaID: id,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("adjustment failed", "minorista_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toMinoristaTransactionDTO(entry))
}

func (h *MinoristaHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.visibleMinorista(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	entries, total, err := h.ledger.MinoristaTransactions(r.Context(), id, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]minoristaTransactionDTO, len(entries))
	for i := range entries {
		dtos[i] = toMinoristaTransactionDTO(&entries[i])
	}
	RespondSuccess(w, http.StatusOK, Page{Items: dtos, Total: total, Limit: limit, Offset: offset})
}

type driftDTO struct {
	MinoristaID uuid.UUID      `json:"minorista_id"`
	Repaired    bool           `json:"repaired"`
	Live        creditStateDTO `json:"live"`
	Projected   creditStateDTO `json:"projected"`
}

type creditStateDTO struct {
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	CreditBalance   decimal.Decimal `json:"credit_balance"`
	ExternalDebt    decimal.Decimal `json:"external_debt"`
}

func toCreditStateDTO(s domain.CreditState) creditStateDTO {
	return creditStateDTO{
		CreditLimit:     s.CreditLimit,
		AvailableCredit: s.AvailableCredit,
		CreditBalance:   s.CreditBalance,
		ExternalDebt:    s.ExternalDebt,
	}
}

func (h *MinoristaHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	drift, err := h.ledger.Reconcile(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, driftDTO{
		MinoristaID: drift.MinoristaID,
		Repaired:    drift.Repaired,
		Live:        toCreditStateDTO(drift.Live),
		Projected:   toCreditStateDTO(drift.Projected),
	})
}

// visibleMinorista resolves the path id. A minorista may only read its own
// account; admins may read any.
func (h *MinoristaHandler) visibleMinorista(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, false
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, false
	}
	if claims.Role.IsAdmin() {
		return id, true
	}
	if claims.Role == domain.RoleMinorista {
		m, err := h.accounts.GetMinoristaByUser(r.Context(), claims.UserID)
		if err == nil && m.ID == id {
			return id, true
		}
	}
	RespondAppError(w, ErrResourceNotFound, nil)
	return uuid.Nil, false
}
