package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type bankService interface {
	CreateBank(ctx context.Context, name string, code int, currency domain.Currency) (*domain.Bank, error)
	ListBanks(ctx context.Context) ([]domain.Bank, error)
}

type assignmentService interface {
	AddAssignment(ctx context.Context, bankID, transferencistaID uuid.UUID, priority int) (*domain.BankAssignment, error)
	ListAssignments(ctx context.Context, bankID uuid.UUID) ([]domain.BankAssignment, error)
}

type bankLedger interface {
	PostBankTransaction(ctx context.Context, t *domain.BankTransaction) error
	BankTransactions(ctx context.Context, bankID uuid.UUID, limit, offset int) ([]domain.BankTransaction, error)
}

type BankHandler struct {
	banks       bankService
	assignments assignmentService
	ledger      bankLedger
}

func NewBankHandler(banks bankService, assignments assignmentService, ledger bankLedger) *BankHandler {
	return &BankHandler{banks: banks, assignments: assignments, ledger: ledger}
}

type createBankRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Code     int    `json:"code" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,oneof=VES COP USD"`
}

type createAssignmentRequest struct {
	TransferencistaID uuid.UUID `json:"transferencista_id" validate:"required"`
	Priority          int       `json:"priority" validate:"gte=0"`
}

type bankTransactionRequest struct {
	Type        string          `json:"type" validate:"required,oneof=INFLOW OUTFLOW NOTE"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=500"`
	Reference   *string         `json:"reference" validate:"omitempty,max=200"`
}

type bankDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      int       `json:"code"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type assignmentDTO struct {
	ID                uuid.UUID `json:"id"`
	BankID            uuid.UUID `json:"bank_id"`
	TransferencistaID uuid.UUID `json:"transferencista_id"`
	Priority          int       `json:"priority"`
	CreatedAt         time.Time `json:"created_at"`
}

type bankTransactionDTO struct {
	ID          uuid.UUID       `json:"id"`
	BankID      uuid.UUID       `json:"bank_id"`
	GiroID      *uuid.UUID      `json:"giro_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference,omitempty"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toBankDTO(b *domain.Bank) bankDTO {
	return bankDTO{ID: b.ID, Name: b.Name, Code: b.Code, Currency: string(b.Currency), CreatedAt: b.CreatedAt}
}

func toAssignmentDTO(a *domain.BankAssignment) assignmentDTO {
	return assignmentDTO{
		ID:                a.ID,
		BankID:            a.BankID,
		TransferencistaID: a.TransferencistaID,
		Priority:          a.Priority,
		CreatedAt:         a.CreatedAt,
	}
}

func toBankTransactionDTO(t *domain.BankTransaction) bankTransactionDTO {
	return bankTransactionDTO{
		ID:          t.ID,
		BankID:      t.BankID,
		GiroID:      t.GiroID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		Reference:   t.Reference,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
	}
}

func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	b, err := h.banks.CreateBank(r.Context(), req.Name, req.Code, domain.Currency(req.Currency))
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankDTO(b))
}

func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	banks, err := h.banks.ListBanks(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]bankDTO, len(banks))
	for i := range banks {
		dtos[i] = toBankDTO(&banks[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankHandler) AddAssignment(w http.ResponseWriter, r *http.Request) {
	bankID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req createAssignmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.assignments.AddAssignment(r.Context(), bankID, req.TransferencistaID, req.Priority)
	if err != nil {
		logging.FromContext(r.Context()).Warn("assignment creation failed", "bank_id", bankID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toAssignmentDTO(a))
}

func (h *BankHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	bankID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	list, err := h.assignments.ListAssignments(r.Context(), bankID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]assignmentDTO, len(list))
	for i := range list {
		dtos[i] = toAssignmentDTO(&list[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	bankID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req bankTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	t := &domain.BankTransaction{
		BankID:      bankID,
		Type:        domain.BankTransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   claims.UserID,
	}
	if err := h.ledger.PostBankTransaction(r.Context(), t); err != nil {
		logging.FromContext(r.Context()).Warn("bank transaction failed", "bank_id", bankID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankTransactionDTO(t))
}

func (h *BankHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	bankID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	limit, offset := pagination(r)
	list, err := h.ledger.BankTransactions(r.Context(), bankID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]bankTransactionDTO, len(list))
	for i := range list {
		dtos[i] = toBankTransactionDTO(&list[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
