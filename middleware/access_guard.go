package middleware

import (
	"context"
	"net/http"

	"github.com/upb/staff-portal/guard"
	"github.com/upb/staff-portal/utils"
	"go.uber.org/zap"
)

// Authorizer decides whether a request may reach a route
type Authorizer interface {
	Authorize(ctx context.Context, header http.Header, meta guard.RouteMetadata) (guard.Decision, error)
}

// DecisionRecorder counts guard outcomes
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// AccessMiddleware adapts the access guard to net/http
type AccessMiddleware struct {
	authorizer Authorizer
	metrics    DecisionRecorder
	logger     *zap.Logger
}

// NewAccessMiddleware creates a new AccessMiddleware. metrics may be nil.
func NewAccessMiddleware(authorizer Authorizer, metrics DecisionRecorder, logger *zap.Logger) *AccessMiddleware {
	return &AccessMiddleware{
		authorizer: authorizer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Guard returns middleware enforcing meta on the wrapped handler
func (m *AccessMiddleware) Guard(meta guard.RouteMetadata) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			decision, err := m.authorizer.Authorize(ctx, r.Header, meta)
			if err != nil {
				m.record("error")
				m.logger.Error("access check failed",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}

			m.record(decision.Outcome())

			if !decision.Allowed() {
				m.reject(w, r, requestID, decision.Rejection)
				return
			}

			if decision.Identity != nil {
				m.logger.Debug("access granted",
					zap.String("request_id", requestID),
					zap.String("user_id", decision.Identity.ID),
					zap.String("role", decision.Identity.Role.String()))
				ctx = WithIdentity(ctx, decision.Identity)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AccessMiddleware) reject(w http.ResponseWriter, r *http.Request, requestID string, rejection *guard.Rejection) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
		zap.Stringer("kind", rejection.Kind),
	}

	switch rejection.Kind.HTTPStatus() {
	case http.StatusForbidden:
		m.logger.Warn("insufficient permissions", fields...)
		_ = utils.WriteForbidden(w, rejection.Message)
	case http.StatusInternalServerError:
		m.logger.Error("access guard misconfigured", fields...)
		_ = utils.WriteInternalServerError(w, rejection.Message)
	default:
		m.logger.Warn("request not authenticated", fields...)
		_ = utils.WriteUnauthorized(w, rejection.Message)
	}
}

func (m *AccessMiddleware) record(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordDecision(outcome)
	}
}
