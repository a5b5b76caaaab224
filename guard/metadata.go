package guard

import (
	"slices"

	"github.com/upb/staff-portal/models"
)

// RouteMetadata declares who may call a route
type RouteMetadata struct {
	Public bool
	Roles  []models.UserRole // empty means any authenticated identity
}

// Public marks a route that skips authentication
func Public() RouteMetadata {
	return RouteMetadata{Public: true}
}

// Authenticated requires a valid identity of any role
func Authenticated() RouteMetadata {
	return RouteMetadata{}
}

// RequireRoles requires an identity holding one of roles
func RequireRoles(roles ...models.UserRole) RouteMetadata {
	return RouteMetadata{Roles: roles}
}

// Permits reports whether role satisfies the route's role set
func (m RouteMetadata) Permits(role models.UserRole) bool {
	if len(m.Roles) == 0 {
		return true
	}
	return slices.Contains(m.Roles, role)
}
