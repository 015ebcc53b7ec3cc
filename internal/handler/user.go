package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
	"github.com/josh-kwaku/giro-backend/internal/logging"
)

type userService interface {
	CreateUser(ctx context.Context, email, name string, role domain.Role) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CreateTransferencista(ctx context.Context, userID uuid.UUID) (*domain.Transferencista, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	GetTransferencista(ctx context.Context, id uuid.UUID) (*domain.Transferencista, error)
}

type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"required,max=200"`
	Role  string `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN MINORISTA TRANSFERENCISTA"`
}

type createTransferencistaRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type transferencistaDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

func toTransferencistaDTO(t *domain.Transferencista) transferencistaDTO {
	return transferencistaDTO{ID: t.ID, UserID: t.UserID, Name: t.Name, Available: t.Available, CreatedAt: t.CreatedAt}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role := domain.Role(req.Role)
	if role.IsAdmin() && claims.Role != domain.RoleSuperAdmin {
		RespondAppError(w, ErrForbidden, nil)
		return
	}

	u, err := h.users.CreateUser(r.Context(), req.Email, req.Name, role)
	if err != nil {
		logging.FromContext(r.Context()).Warn("user creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toUserDTO(u))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, appErr := claimsFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	u, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get user", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) CreateTransferencista(w http.ResponseWriter, r *http.Request) {
	var req createTransferencistaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	t, err := h.users.CreateTransferencista(r.Context(), req.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transferencista creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferencistaDTO(t))
}

func (h *UserHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var req availabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.users.SetAvailability(r.Context(), id, *req.Available); err != nil {
		RespondDomainError(w, err)
		return
	}
	t, err := h.users.GetTransferencista(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransferencistaDTO(t))
}
