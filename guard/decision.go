package guard

import (
	"net/http"

	"github.com/upb/staff-portal/models"
)

// RejectionKind classifies why a request was refused
type RejectionKind int

const (
	MissingCredential RejectionKind = iota + 1
	InvalidCredential
	ExpiredCredential
	MalformedCredential
	UnknownIdentity
	InsufficientPermissions
	ConfigurationError
)

func (k RejectionKind) String() string {
	switch k {
	case MissingCredential:
		return "missing_credential"
	case InvalidCredential:
		return "invalid_credential"
	case ExpiredCredential:
		return "expired_credential"
	case MalformedCredential:
		return "malformed_credential"
	case UnknownIdentity:
		return "unknown_identity"
	case InsufficientPermissions:
		return "insufficient_permissions"
	case ConfigurationError:
		return "configuration_error"
	}
	return "unknown"
}

// HTTPStatus returns the response status for a rejection of this kind
func (k RejectionKind) HTTPStatus() int {
	switch k {
	case InsufficientPermissions:
		return http.StatusForbidden
	case ConfigurationError:
		return http.StatusInternalServerError
	}
	return http.StatusUnauthorized
}

// Message is the fixed client-facing text for the kind.
// UnknownIdentity shares the InvalidCredential text so clients cannot probe for user ids.
func (k RejectionKind) Message() string {
	switch k {
	case MissingCredential:
		return "Authorization token is missing or malformed."
	case InvalidCredential, UnknownIdentity:
		return "Invalid token. Please log in again."
	case ExpiredCredential:
		return "Authorization token has expired. Please log in again."
	case MalformedCredential:
		return "Failed to authenticate token."
	case InsufficientPermissions:
		return "You do not have the required permissions to access this resource."
	}
	return "Authentication is not available."
}

// Identity is the caller resolved for a single request
type Identity struct {
	ID          string
	DisplayName string
	Role        models.UserRole
}

// Rejection is a refused request
type Rejection struct {
	Kind    RejectionKind
	Message string
}

// Decision is the outcome of Authorize. Exactly one of an allow (with an
// optional Identity) or a Rejection.
type Decision struct {
	Identity  *Identity
	Rejection *Rejection
}

// Allow returns an allowing decision. id is nil on public routes.
func Allow(id *Identity) Decision {
	return Decision{Identity: id}
}

// Reject returns a rejecting decision of the given kind
func Reject(kind RejectionKind) Decision {
	return Decision{Rejection: &Rejection{Kind: kind, Message: kind.Message()}}
}

// Allowed reports whether the request may proceed
func (d Decision) Allowed() bool {
	return d.Rejection == nil
}

// Outcome is a short label for logs and metrics
func (d Decision) Outcome() string {
	if d.Rejection != nil {
		return d.Rejection.Kind.String()
	}
	if d.Identity == nil {
		return "public"
	}
	return "allowed"
}
