package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/auth"
)

func claimsFrom(r *http.Request) (auth.Claims, *AppError) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return auth.Claims{}, ErrMissingToken
	}
	return c, nil
}

// pathID parses a UUID route parameter. A malformed id is reported as not
// found so probing ids reveals nothing.
func pathID(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
