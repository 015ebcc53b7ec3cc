package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/auth"
	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
	"github.com/josh-kwaku/giro-backend/internal/service/giro"
)

type giroService interface {
	Create(ctx context.Context, req giro.CreateRequest) (*domain.Giro, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Giro, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.GiroEvent, error)
	List(ctx context.Context, f domain.GiroFilter) ([]domain.Giro, int, error)
	Assign(ctx context.Context, giroID, actor uuid.UUID) (*domain.Giro, error)
	StartExecution(ctx context.Context, giroID, actor uuid.UUID) (*domain.Giro, error)
	Complete(ctx context.Context, req giro.CompleteRequest) (*domain.Giro, error)
	Cancel(ctx context.Context, giroID uuid.UUID, reason string, actor uuid.UUID) (*domain.Giro, error)
	Return(ctx context.Context, giroID uuid.UUID, reason string, actor uuid.UUID) (*domain.Giro, error)
}

// partyLookup resolves the minorista or transferencista record behind the
// acting user.
type partyLookup interface {
	GetMinoristaByUser(ctx context.Context, userID uuid.UUID) (*domain.Minorista, error)
	GetTransferencistaByUser(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error)
}

type GiroHandler struct {
	giros   giroService
	parties partyLookup
}

func NewGiroHandler(giros giroService, parties partyLookup) *GiroHandler {
	return &GiroHandler{giros: giros, parties: parties}
}

type quoteRequest struct {
	BuyRate  decimal.Decimal `json:"buy_rate"`
	SellRate decimal.Decimal `json:"sell_rate"`
	USD      decimal.Decimal `json:"usd"`
	BCV      decimal.Decimal `json:"bcv"`
}

type createGiroRequest struct {
	MinoristaID     *uuid.UUID      `json:"minorista_id"`
	BeneficiaryName string          `json:"beneficiary_name" validate:"required,max=200"`
	BeneficiaryID   string          `json:"beneficiary_id" validate:"required,max=50"`
	BankID          uuid.UUID       `json:"bank_id" validate:"required"`
	AccountNumber   string          `json:"account_number" validate:"required,max=50"`
	Phone           *string         `json:"phone" validate:"omitempty,max=30"`
	AmountInput     decimal.Decimal `json:"amount_input"`
	CurrencyInput   string          `json:"currency_input" validate:"required,oneof=VES COP USD"`
	ExecutionType   string          `json:"execution_type" validate:"required,oneof=TRANSFERENCIA PAGO_MOVIL EFECTIVO ZELLE OTROS RECARGA"`
	RateID          *uuid.UUID      `json:"rate_id"`
	CustomRate      *quoteRequest   `json:"custom_rate"`
	AutoAssign      bool            `json:"auto_assign"`
}

type completeGiroRequest struct {
	BankAccountID   uuid.UUID       `json:"bank_account_id" validate:"required"`
	Fee             decimal.Decimal `json:"fee"`
	PaymentProofRef *string         `json:"payment_proof_ref" validate:"omitempty,max=200"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type giroDTO struct {
	ID                uuid.UUID       `json:"id"`
	MinoristaID       *uuid.UUID      `json:"minorista_id"`
	TransferencistaID *uuid.UUID      `json:"transferencista_id"`
	BeneficiaryName   string          `json:"beneficiary_name"`
	BeneficiaryID     string          `json:"beneficiary_id"`
	BankID            uuid.UUID       `json:"bank_id"`
	BankCode          int             `json:"bank_code"`
	AccountNumber     string          `json:"account_number"`
	Phone             *string         `json:"phone,omitempty"`
	AmountInput       decimal.Decimal `json:"amount_input"`
	CurrencyInput     string          `json:"currency_input"`
	AmountBs          decimal.Decimal `json:"amount_bs"`
	RateID            uuid.UUID       `json:"rate_id"`
	BCVValueApplied   decimal.Decimal `json:"bcv_value_applied"`
	Commission        decimal.Decimal `json:"commission"`
	SystemProfit      decimal.Decimal `json:"system_profit"`
	MinoristaProfit   decimal.Decimal `json:"minorista_profit"`
	ExecutionType     string          `json:"execution_type"`
	Status            string          `json:"status"`
	ReturnReason      *string         `json:"return_reason,omitempty"`
	CancelReason      *string         `json:"cancel_reason,omitempty"`
	ExecutedBy        *uuid.UUID      `json:"executed_by,omitempty"`
	BankAccountID     *uuid.UUID      `json:"bank_account_id,omitempty"`
	PaymentProofRef   *string         `json:"payment_proof_ref,omitempty"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func toGiroDTO(g *domain.Giro) giroDTO {
	return giroDTO{
		ID:                g.ID,
		MinoristaID:       g.MinoristaID,
		TransferencistaID: g.TransferencistaID,
		BeneficiaryName:   g.BeneficiaryName,
		BeneficiaryID:     g.BeneficiaryID,
		BankID:            g.BankID,
		BankCode:          g.BankCode,
		AccountNumber:     g.AccountNumber,
		Phone:             g.Phone,
		AmountInput:       g.AmountInput,
		CurrencyInput:     string(g.CurrencyInput),
		AmountBs:          g.AmountBs,
		RateID:            g.RateID,
		BCVValueApplied:   g.BCVValueApplied,
		Commission:        g.Commission,
		SystemProfit:      g.SystemProfit,
		MinoristaProfit:   g.MinoristaProfit,
		ExecutionType:     string(g.ExecutionType),
		Status:            string(g.Status),
		ReturnReason:      g.ReturnReason,
		CancelReason:      g.CancelReason,
		ExecutedBy:        g.ExecutedBy,
		BankAccountID:     g.BankAccountID,
		PaymentProofRef:   g.PaymentProofRef,
		Version:           g.Version,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
		CompletedAt:       g.CompletedAt,
	}
}

type giroEventDTO struct {
	ID         uuid.UUID `json:"id"`
	EventType  string    `json:"event_type"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Payload    any       `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *GiroHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createGiroRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !req.AmountInput.IsPositive() {
		RespondValidationError(w, []FieldError{{Field: "amount_input", Message: "gt=0"}})
		return
	}

	// A minorista always originates giros against its own credit.
	minoristaID := req.MinoristaID
	switch claims.Role {
	case domain.RoleMinorista:
		m, err := h.parties.GetMinoristaByUser(r.Context(), claims.UserID)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		minoristaID = &m.ID
	case domain.RoleTransferencista:
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	in := giro.CreateRequest{
		MinoristaID:     minoristaID,
		BeneficiaryName: req.BeneficiaryName,
		BeneficiaryID:   req.BeneficiaryID,
		BankID:          req.BankID,
		AccountNumber:   req.AccountNumber,
		Phone:           req.Phone,
		AmountInput:     req.AmountInput,
		CurrencyInput:   domain.Currency(req.CurrencyInput),
		ExecutionType:   domain.ExecutionType(req.ExecutionType),
		RateID:          req.RateID,
		CreatedBy:       claims.UserID,
		AutoAssign:      req.AutoAssign,
	}
	if req.CustomRate != nil {
		in.CustomRate = &ratebook.Quote{
			BuyRate:  req.CustomRate.BuyRate,
			SellRate: req.CustomRate.SellRate,
			USD:      req.CustomRate.USD,
			BCV:      req.CustomRate.BCV,
		}
	}

	g, err := h.giros.Create(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Warn("giro creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/giros/%s", g.ID))
	RespondSuccess(w, http.StatusCreated, toGiroDTO(g))
}

func (h *GiroHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, ok := h.visibleGiro(w, r)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, toGiroDTO(g))
}

func (h *GiroHandler) History(w http.ResponseWriter, r *http.Request) {
	g, ok := h.visibleGiro(w, r)
	if !ok {
		return
	}

	events, err := h.giros.History(r.Context(), g.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]giroEventDTO, len(events))
	for i, e := range events {
		dto := giroEventDTO{
			ID:        e.ID,
			EventType: string(e.EventType),
			ToStatus:  string(e.ToStatus),
			Actor:     e.Actor,
			Payload:   rawJSON(e.Payload),
			CreatedAt: e.CreatedAt,
		}
		if e.FromStatus != nil {
			s := string(*e.FromStatus)
			dto.FromStatus = &s
		}
		dtos[i] = dto
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *GiroHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	f := domain.GiroFilter{}
	f.Limit, f.Offset = pagination(r)
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.GiroStatus(s)
		f.Status = &st
	}

	switch claims.Role {
	case domain.RoleMinorista:
		m, err := h.parties.GetMinoristaByUser(r.Context(), claims.UserID)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		f.MinoristaID = &m.ID
	case domain.RoleTransferencista:
		t, err := h.parties.GetTransferencistaByUser(r.Context(), claims.UserID)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		f.TransferencistaID = &t.ID
	default:
		if id, err := uuid.Parse(r.URL.Query().Get("minorista_id")); err == nil {
			f.MinoristaID = &id
		}
		if id, err := uuid.Parse(r.URL.Query().Get("transferencista_id")); err == nil {
			f.TransferencistaID = &id
		}
	}

	giros, total, err := h.giros.List(r.Context(), f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]giroDTO, len(giros))
	for i := range giros {
		dtos[i] = toGiroDTO(&giros[i])
	}
	RespondSuccess(w, http.StatusOK, Page{Items: dtos, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *GiroHandler) Assign(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, c auth.Claims, g *domain.Giro) (*domain.Giro, error) {
		if !c.Role.IsAdmin() {
			return nil, errForbidden
		}
		return h.giros.Assign(ctx, g.ID, c.UserID)
	})
}

func (h *GiroHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, c auth.Claims, g *domain.Giro) (*domain.Giro, error) {
		if err := h.requireExecutor(ctx, c, g); err != nil {
			return nil, err
		}
		return h.giros.StartExecution(ctx, g.ID, c.UserID)
	})
}

func (h *GiroHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeGiroRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Fee.IsNegative() {
		RespondValidationError(w, []FieldError{{Field: "fee", Message: "gte=0"}})
		return
	}

	h.act(w, r, func(ctx context.Context, c auth.Claims, g *domain.Giro) (*domain.Giro, error) {
		if err := h.requireExecutor(ctx, c, g); err != nil {
			return nil, err
		}
		return h.giros.Complete(ctx, giro.CompleteRequest{
			GiroID:          g.ID,
			BankAccountID:   req.BankAccountID,
			Fee:             req.Fee,
			PaymentProofRef: req.PaymentProofRef,
			Actor:           c.UserID,
		})
	})
}

func (h *GiroHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	h.act(w, r, func(ctx context.Context, c auth.Claims, g *domain.Giro) (*domain.Giro, error) {
		switch {
		case c.Role.IsAdmin():
		case c.Role == domain.RoleMinorista:
			// visibleGiro already restricted the minorista to its own giros.
		default:
			return nil, errForbidden
		}
		return h.giros.Cancel(ctx, g.ID, req.Reason, c.UserID)
	})
}

func (h *GiroHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.act(w, r, func(ctx context.Context, c auth.Claims, g *domain.Giro) (*domain.Giro, error) {
		if err := h.requireExecutor(ctx, c, g); err != nil {
			return nil, err
		}
		return h.giros.Return(ctx, g.ID, req.Reason, c.UserID)
	})
}

var errForbidden = errors.New("forbidden")

func (h *GiroHandler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, auth.Claims, *domain.Giro) (*domain.Giro, error)) {
	g, ok := h.visibleGiro(w, r)
	if !ok {
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	ctx := logging.WithGiro(r.Context(), g.ID)

	updated, err := fn(ctx, claims, g)
	if errors.Is(err, errForbidden) {
		RespondAppError(w, ErrForbidden, nil)
		return
	}
	if err != nil {
		logging.FromContext(ctx).Warn("giro operation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toGiroDTO(updated))
}

// requireExecutor lets admins act on any giro and a transferencista only on
// giros assigned to them.
func (h *GiroHandler) requireExecutor(ctx context.Context, c auth.Claims, g *domain.Giro) error {
	if c.Role.IsAdmin() {
		return nil
	}
	if c.Role != domain.RoleTransferencista {
		return errForbidden
	}
	t, err := h.parties.GetTransferencistaByUser(ctx, c.UserID)
	if err != nil {
		return err
	}
	if g.TransferencistaID == nil || *g.TransferencistaID != t.ID {
		return errForbidden
	}
	return nil
}

// visibleGiro loads the giro named in the path, answering 404 when the
// caller may not see it.
func (h *GiroHandler) visibleGiro(w http.ResponseWriter, r *http.Request) (*domain.Giro, bool) {
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

	g, err := h.giros.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return nil, false
	}

	visible := claims.Role.IsAdmin()
	switch claims.Role {
	case domain.RoleMinorista:
		m, err := h.parties.GetMinoristaByUser(r.Context(), claims.UserID)
		visible = err == nil && g.MinoristaID != nil && *g.MinoristaID == m.ID
	case domain.RoleTransferencista:
		t, err := h.parties.GetTransferencistaByUser(r.Context(), claims.UserID)
		visible = err == nil && g.TransferencistaID != nil && *g.TransferencistaID == t.ID
	}
	if !visible {
		RespondAppError(w, ErrResourceNotFound, nil)
		return nil, false
	}
	return g, true
}
