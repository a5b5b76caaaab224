package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/staff-portal/guard"
)

// Context key type to avoid collisions
type contextKey string

// IdentityKey is the context key for the resolved caller
const IdentityKey contextKey = "identity"

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetIdentityFromContext retrieves the identity attached by the access guard.
// Returns nil on public routes.
func GetIdentityFromContext(ctx context.Context) *guard.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if identity, ok := val.(*guard.Identity); ok {
			return identity
		}
	}
	return nil
}

// WithIdentity adds a resolved identity to the context
func WithIdentity(ctx context.Context, identity *guard.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
