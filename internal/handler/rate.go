package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
	"github.com/josh-kwaku/giro-backend/internal/ratebook"
)

type rateBook interface {
	Current(ctx context.Context) (*domain.Rate, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Rate, error)
	History(ctx context.Context, limit, offset int) ([]domain.Rate, error)
	Publish(ctx context.Context, q ratebook.Quote, publishedBy uuid.UUID) (*domain.Rate, error)
}

type RateHandler struct {
	rates rateBook
}

func NewRateHandler(rates rateBook) *RateHandler {
	return &RateHandler{rates: rates}
}

type rateDTO struct {
	ID        uuid.UUID       `json:"id"`
	BuyRate   decimal.Decimal `json:"buy_rate"`
	SellRate  decimal.Decimal `json:"sell_rate"`
	USD       decimal.Decimal `json:"usd"`
	BCV       decimal.Decimal `json:"bcv"`
	IsCustom  bool            `json:"is_custom"`
	CreatedAt time.Time       `json:"created_at"`
}

func toRateDTO(r *domain.Rate) rateDTO {
	return rateDTO{
		ID:        r.ID,
		BuyRate:   r.BuyRate,
		SellRate:  r.SellRate,
		USD:       r.USD,
		BCV:       r.BCV,
		IsCustom:  r.IsCustom,
		CreatedAt: r.CreatedAt,
	}
}

func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.Current(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("rate lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRateDTO(rate))
}

func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	rate, err := h.rates.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRateDTO(rate))
}

func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rates, err := h.rates.History(r.Context(), limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	dtos := make([]rateDTO, len(rates))
	for i := range rates {
		dtos[i] = toRateDTO(&rates[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *RateHandler) Publish(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req quoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rate, err := h.rates.Publish(r.Context(), ratebook.Quote{
		BuyRate:  req.BuyRate,
		SellRate: req.SellRate,
		USD:      req.USD,
		BCV:      req.BCV,
	}, claims.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("rate publish failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toRateDTO(rate))
}
