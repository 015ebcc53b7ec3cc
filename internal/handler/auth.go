package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/auth"
	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type userReader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AuthHandler issues bearer tokens for existing users. Credentials are
// managed outside this service, so issuance is a super-admin operation.
type AuthHandler struct {
	users     userReader
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(users userReader, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type issueTokenRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userDTO   `json:"user"`
}

func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetUser(r.Context(), req.UserID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if user.Status != domain.UserStatusActive {
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	token, err := auth.GenerateToken(auth.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		logging.FromContext(r.Context()).Error("token generation failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	logging.FromContext(r.Context()).Info("token issued", "subject", user.ID, "role", user.Role)
	RespondSuccess(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.jwtExpiry),
		User:      toUserDTO(user),
	})
}
