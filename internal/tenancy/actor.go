package tenancy

import (
	"errors"

	"datapro-service/internal/model"
	"datapro-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// ErrPermissionDenied signals that the actor is not allowed to touch the
// object or perform the action. Write paths surface it explicitly; read paths
// translate cross-tenant access into not-found so existence never leaks.
var ErrPermissionDenied = errors.New("permission denied")

// Actor is the authenticated principal a request acts as, extracted from the
// JWT claims by the auth middleware.
type Actor struct {
	UserID   uint
	Email    string
	Role     model.Role
	ClientID *uint
}

// FromClaims builds an actor from validated JWT claims
func FromClaims(claims *jwtutil.UserClaims) *Actor {
	return &Actor{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     model.Role(claims.Role),
		ClientID: claims.ClientID,
	}
}

// ActorFromEcho returns the actor placed in the echo context by the auth
// middleware, or nil when the request is unauthenticated.
func ActorFromEcho(c echo.Context) *Actor {
	actor, _ := c.Get("actor").(*Actor)
	return actor
}

// IsSuperAdmin reports whether the actor sees all tenants
func (a *Actor) IsSuperAdmin() bool {
	return a.Role == model.RoleSuperAdmin
}

// IsClientAdmin reports whether the actor administers its tenant
func (a *Actor) IsClientAdmin() bool {
	return a.Role == model.RoleClientAdmin
}

// CanWrite reports whether the actor's role may mutate records at all
func (a *Actor) CanWrite() bool {
	switch a.Role {
	case model.RoleSuperAdmin, model.RoleClientAdmin, model.RoleStaff:
		return true
	default:
		return false
	}
}
