package auth

import (
	"context"

	"github.com/woodline/crm-api/internal/domain"
)

type contextKey string

const userContextKey contextKey = "userContext"

// UserContext holds the authenticated user's information extracted from a token
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Role        domain.UserRoleType
}

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics (use only after auth middleware)
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found - ensure auth middleware is applied")
	}
	return user
}

// HasRole checks if the user has the given role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	return u.Role == role
}

// HasAnyRole checks if the user has any of the given roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if the user is an administrator
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// CanManageOrders reports whether the user may create, edit and move orders.
// Viewers get read-only access to every surface.
func (u *UserContext) CanManageOrders() bool {
	switch u.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleSales:
		return true
	default:
		return false
	}
}

// CanManageUsers reports whether the user may administer accounts and roles.
func (u *UserContext) CanManageUsers() bool {
	return u.Role == domain.RoleAdmin
}
