package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Page struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps a service error to its HTTP form. Specific errors
// get their own code; anything else falls back to its category.
func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidCurrency):
		return ErrInvalidCurrency
	case errors.Is(err, domain.ErrInvalidExecutionType):
		return ErrInvalidExecutionType
	case errors.Is(err, domain.ErrReturnReasonRequired):
		return ErrReturnReasonRequired
	case errors.Is(err, domain.ErrValidationFailed):
		return ErrValidationFailed

	case errors.Is(err, domain.ErrRateNotFound):
		return ErrRateNotFound
	case errors.Is(err, domain.ErrNoEligibleAgent):
		return ErrNoEligibleAgent
	case errors.Is(err, domain.ErrNoAssignedAgent):
		return ErrNoAssignedAgent
	case errors.Is(err, domain.ErrGiroNotInState):
		return ErrGiroNotInState
	case errors.Is(err, domain.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, domain.ErrAccountOwnerMismatch):
		return ErrAccountOwnerMismatch
	case errors.Is(err, domain.ErrDuplicate):
		return ErrDuplicate
	case errors.Is(err, domain.ErrPreconditionFailed):
		return ErrPreconditionFailed

	case errors.Is(err, domain.ErrInvalidStateTransition):
		return ErrInvalidTransition
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return ErrVersionConflict
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}

func rawJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
