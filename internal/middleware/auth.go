package middleware

import (
	"net/http"
	"strings"

	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/database"
	"fitpro-server/pkg/jwtutil"
	"fitpro-server/pkg/logger"
	"fitpro-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	principalKey = "principal"
	claimsKey    = "claims"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// stores the claims plus a claims-derived principal in the request context.
// Role and gym context come from the token, so those changes take effect on
// the next sign-in; the active flag is checked against the database on every
// request, so deactivating an account locks it out immediately.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		var count int64
		if err := database.GetDB().Model(&model.User{}).
			Where("id = ? AND active = ?", claims.UserID, true).
			Count(&count).Error; err != nil || count == 0 {
			log.Warn("Token for missing or deactivated account", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("account_disabled")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is disabled"})
		}

		principal := &model.User{
			ID:     claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			GymID:  claims.GymID,
			Active: true,
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, principal)

		return next(c)
	}
}

// Principal returns the authenticated user resolved by AuthMiddleware, or
// nil when the request is unauthenticated. Callers feed it straight into the
// rbac predicates, which treat nil as "deny everything".
func Principal(c echo.Context) *model.User {
	principal, ok := c.Get(principalKey).(*model.User)
	if !ok {
		return nil
	}
	return principal
}

// Claims returns the raw token claims, or nil when unauthenticated.
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRole rejects requests below the given role. Sysadmin always passes.
func RequireRole(min rbac.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := Principal(c)
			if principal == nil || !rbac.HasAtLeast(rbac.Role(principal.Role), min) {
				logger.FromEcho(c).Warn("Insufficient role for endpoint",
					zap.String("path", c.Path()),
					zap.String("required", string(min)))
				prometheus.RecordAuthError("permission_denied")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}

// RequireGymContext rejects requests whose token carries no gym context and
// whose principal is not a sysadmin selecting a gym explicitly.
func RequireGymContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := Principal(c)
		if principal == nil {
			prometheus.RecordAuthError("missing_principal")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		if principal.GymID == nil && rbac.Role(principal.Role) != rbac.RoleSysadmin {
			logger.FromEcho(c).Warn("Request without gym context", zap.Uint("user_id", principal.ID))
			prometheus.RecordAuthError("missing_gym_context")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
		}
		return next(c)
	}
}
