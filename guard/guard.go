// Package guard decides whether a request may reach a route.
//
// The pipeline is: public bypass, credential extraction, token verification,
// identity resolution against the user store and the role check. Refusals are
// returned as Decision values; only user store failures are Go errors.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/upb/staff-portal/auth"
	"github.com/upb/staff-portal/models"
	"github.com/upb/staff-portal/repositories"
	"go.uber.org/zap"
)

// UserStore looks up users by id
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TokenVerifier verifies a bearer token
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Guard authorizes requests against route metadata
type Guard struct {
	verifier TokenVerifier
	users    UserStore
	logger   *zap.Logger
}

// NewGuard creates a new access guard
func NewGuard(verifier TokenVerifier, users UserStore, logger *zap.Logger) *Guard {
	return &Guard{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// Authorize runs the access pipeline for one request
func (g *Guard) Authorize(ctx context.Context, header http.Header, meta RouteMetadata) (Decision, error) {
	if meta.Public {
		return Allow(nil), nil
	}

	token, ok := ExtractBearerToken(header)
	if !ok {
		return Reject(MissingCredential), nil
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		kind := classify(err)
		g.logger.Debug("token rejected", zap.Stringer("kind", kind), zap.Error(err))
		return Reject(kind), nil
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			g.logger.Debug("token subject not found", zap.String("user_id", claims.UserID))
			return Reject(UnknownIdentity), nil
		}
		return Decision{}, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if user == nil {
		return Reject(UnknownIdentity), nil
	}

	if !meta.Permits(claims.UserRole) {
		return Reject(InsufficientPermissions), nil
	}

	name := claims.UserName
	if name == "" {
		name = user.DisplayName()
	}

	return Allow(&Identity{
		ID:          claims.UserID,
		DisplayName: name,
		Role:        claims.UserRole,
	}), nil
}

func classify(err error) RejectionKind {
	switch {
	case errors.Is(err, auth.ErrMissingSecret):
		return ConfigurationError
	case errors.Is(err, auth.ErrTokenExpired):
		return ExpiredCredential
	case errors.Is(err, auth.ErrMalformedToken):
		return MalformedCredential
	}
	return InvalidCredential
}
