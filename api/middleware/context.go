package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/enums"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the normalized caller identity seeded by Auth and OptionalAuth.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  enums.PrincipalRole
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	return p, ok && p.ID != uuid.Nil
}

// PrincipalIDFromContext returns the caller id or uuid.Nil when anonymous.
func PrincipalIDFromContext(ctx context.Context) uuid.UUID {
	p, _ := PrincipalFromContext(ctx)
	return p.ID
}

// WithPrincipal injects the principal into the context for downstream handlers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
