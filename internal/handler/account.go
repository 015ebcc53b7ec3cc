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

type bankAccountService interface {
	CreateBankAccount(ctx context.Context, req service.CreateBankAccountRequest) (*domain.BankAccount, error)
	GetBankAccount(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error)
	ListBankAccounts(ctx context.Context, ownerID uuid.UUID) ([]domain.BankAccount, error)
	GetTransferencistaByUser(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error)
}

type bankAccountLedger interface {
	PostBankAccountEntry(ctx context.Context, in ledger.BankAccountEntry) (*domain.BankAccountTransaction, error)
	BankAccountEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.BankAccountTransaction, int, error)
}

type BankAccountHandler struct {
	accounts bankAccountService
	ledger   bankAccountLedger
}

func NewBankAccountHandler(accounts bankAccountService, ledger bankAccountLedger) *BankAccountHandler {
	return &BankAccountHandler{accounts: accounts, ledger: ledger}
}

type createBankAccountRequest struct {
	BankID        uuid.UUID  `json:"bank_id" validate:"required"`
	OwnerType     string     `json:"owner_type" validate:"required,oneof=PLATFORM TRANSFERENCISTA"`
	OwnerID       *uuid.UUID `json:"owner_id"`
	AccountNumber *string    `json:"account_number" validate:"omitempty,max=50"`
	AccountHolder string     `json:"account_holder" validate:"required,max=200"`
	AccountType   string     `json:"account_type" validate:"required,oneof=AHORROS CORRIENTE"`
}

type bankAccountEntryRequest struct {
	Type        string          `json:"type" validate:"required,oneof=DEPOSIT WITHDRAWAL ADJUSTMENT"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Reference   *string         `json:"reference" validate:"omitempty,max=200"`
	Description string          `json:"description" validate:"max=500"`
}

type bankAccountDTO struct {
	ID            uuid.UUID       `json:"id"`
	BankID        uuid.UUID       `json:"bank_id"`
	OwnerType     string          `json:"owner_type"`
	OwnerID       *uuid.UUID      `json:"owner_id"`
	AccountNumber *string         `json:"account_number"`
	AccountHolder string          `json:"account_holder"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

type bankAccountEntryDTO struct {
	ID              uuid.UUID       `json:"id"`
	BankAccountID   uuid.UUID       `json:"bank_account_id"`
	GiroID          *uuid.UUID      `json:"giro_id,omitempty"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Fee             decimal.Decimal `json:"fee"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	Reference       *string         `json:"reference,omitempty"`
	Description     string          `json:"description"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toBankAccountDTO(a *domain.BankAccount) bankAccountDTO {
	return bankAccountDTO{
		ID:            a.ID,
		BankID:        a.BankID,
		OwnerType:     string(a.OwnerType),
		OwnerID:       a.OwnerID,
		AccountNumber: a.AccountNumber,
		AccountHolder: a.AccountHolder,
		AccountType:   string(a.AccountType),
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

func toBankAccountEntryDTO(e *domain.BankAccountTransaction) bankAccountEntryDTO {
	return bankAccountEntryDTO{
		ID:              e.ID,
		BankAccountID:   e.BankAccountID,
		GiroID:          e.GiroID,
		Type:            string(e.Type),
		Amount:          e.Amount,
		Fee:             e.Fee,
		PreviousBalance: e.PreviousBalance,
		CurrentBalance:  e.CurrentBalance,
		Reference:       e.Reference,
		Description:     e.Description,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

func (h *BankAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBankAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.accounts.CreateBankAccount(r.Context(), service.CreateBankAccountRequest{
		BankID:        req.BankID,
		OwnerType:     domain.BankAccountOwnerType(req.OwnerType),
		OwnerID:       req.OwnerID,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		AccountType:   domain.BankAccountType(req.AccountType),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankAccountDTO(a))
}

func (h *BankAccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.visibleAccount(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toBankAccountDTO(a))
}

// Mine lists the bank accounts of the calling transferencista.
func (h *BankAccountHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	t, err := h.accounts.GetTransferencistaByUser(r.Context(), claims.UserID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	list, err := h.accounts.ListBankAccounts(r.Context(), t.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]bankAccountDTO, len(list))
	for i := range list {
		dtos[i] = toBankAccountDTO(&list[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BankAccountHandler) PostEntry(w http.ResponseWriter, r *http.Request) {
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
	var req bankAccountEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.ledger.PostBankAccountEntry(r.Context(), ledger.BankAccountEntry{
		BankAccountID: id,
		Type:          domain.BankAccountTransactionType(req.Type),
		Amount:        req.Amount,
		Fee:           req.Fee,
		Reference:     req.Reference,
		Description:   req.Description,
		CreatedBy:     claims.UserID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank account entry failed", "bank_account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankAccountEntryDTO(entry))
}

func (h *BankAccountHandler) Entries(w http.ResponseWriter, r *http.Request) {
	a, ok := h.visibleAccount(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	entries, total, err := h.ledger.BankAccountEntries(r.Context(), a.ID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]bankAccountEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toBankAccountEntryDTO(&entries[i])
	}
	RespondSuccess(w, http.StatusOK, Page{Items: dtos, Total: total, Limit: limit, Offset: offset})
}

func (h *BankAccountHandler) visibleAccount(w http.ResponseWriter, r *http.Request) (*domain.BankAccount, bool) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return nil, false
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return nil, false
	}
	a, err := h.accounts.GetBankAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}
	if claims.Role.IsAdmin() {
		return a, true
	}
	if claims.Role == domain.RoleTransferencista {
		t, err := h.accounts.GetTransferencistaByUser(r.Context(), claims.UserID)
		if err == nil && a.OwnedBy(t.ID) {
			return a, true
		}
	}
	RespondAppError(w, ErrResourceNotFound, nil)
	return nil, false
}
