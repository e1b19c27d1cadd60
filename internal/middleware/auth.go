package middleware

import (
	"net/http"
	"strings"

	"datapro-service/internal/tenancy"
	"datapro-service/pkg/jwtutil"
	"datapro-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and places the acting principal
// in the context for the scoping layer.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid or expired token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set("user", claims)
		c.Set("actor", tenancy.FromClaims(claims))
		return next(c)
	}
}

// RequireSuperAdmin restricts a route group to superadmins
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := tenancy.ActorFromEcho(c)
		if actor == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !actor.IsSuperAdmin() {
			logger.FromContext(c).Warn("superadmin route denied",
				zap.Uint("user_id", actor.UserID),
				zap.String("role", string(actor.Role)))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "superadmin access required"})
		}
		return next(c)
	}
}

// RequireClientAdmin restricts a route group to tenant admins and superadmins
func RequireClientAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := tenancy.ActorFromEcho(c)
		if actor == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if !actor.IsSuperAdmin() && !actor.IsClientAdmin() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}
