package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Role not permitted for this operation"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount        = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidCurrency      = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Currency must be VES, COP or USD"}
	ErrInvalidExecutionType = &AppError{http.StatusBadRequest, "INVALID_EXECUTION_TYPE", "Unknown execution type"}
	ErrReturnReasonRequired = &AppError{http.StatusBadRequest, "RETURN_REASON_REQUIRED", "A return reason is required"}

	ErrRateNotFound         = &AppError{http.StatusUnprocessableEntity, "RATE_NOT_FOUND", "No exchange rate available"}
	ErrNoEligibleAgent      = &AppError{http.StatusUnprocessableEntity, "NO_ELIGIBLE_AGENT", "No available transferencista for this bank"}
	ErrNoAssignedAgent      = &AppError{http.StatusUnprocessableEntity, "NO_ASSIGNED_AGENT", "Giro has no assigned transferencista"}
	ErrGiroNotInState       = &AppError{http.StatusUnprocessableEntity, "GIRO_NOT_IN_STATE", "Giro state does not permit this operation"}
	ErrInsufficientFunds    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAccountOwnerMismatch = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_OWNER_MISMATCH", "Bank account does not belong to the executing transferencista"}
	ErrDuplicate            = &AppError{http.StatusConflict, "DUPLICATE", "Resource already exists"}
	ErrPreconditionFailed   = &AppError{http.StatusUnprocessableEntity, "PRECONDITION_FAILED", "Operation preconditions not met"}

	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_STATE_TRANSITION", "Resource is already in a terminal state"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "CONCURRENCY_CONFLICT", "Resource was modified concurrently, please retry"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInFlight   = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_FLIGHT", "A request with this idempotency key is still being processed"}
)
