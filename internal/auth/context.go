package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	c, ok := ClaimsFromContext(ctx)
	return c.UserID, ok
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	c, ok := ClaimsFromContext(ctx)
	return c.Role, ok
}
