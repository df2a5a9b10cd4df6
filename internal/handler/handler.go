package handler

import (
	"strconv"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/auth"
	"fitpro-server/internal/middleware"
	"fitpro-server/internal/rbac"
	"fitpro-server/internal/tenant"

	"github.com/labstack/echo/v4"
)

var (
	authService *auth.Service
	gymResolver *tenant.Resolver
)

// Initialize wires the services the handlers delegate to. Called once from
// main before routes are registered.
func Initialize(svc *auth.Service, resolver *tenant.Resolver) {
	authService = svc
	gymResolver = resolver
}

// respondError translates a service error into the HTTP response shape used
// across all handlers.
func respondError(c echo.Context, err error) error {
	return c.JSON(apperror.HTTPStatus(err), echo.Map{"error": apperror.Message(err)})
}

// effectiveGymID resolves which gym a request operates on: the principal's
// own gym, or for a sysadmin the gym selected by view-switch or an explicit
// gym_id query parameter (cross-gym administrative mode).
func effectiveGymID(c echo.Context) (uint, bool) {
	principal := middleware.Principal(c)
	if principal == nil {
		return 0, false
	}

	if rbac.Role(principal.Role) == rbac.RoleSysadmin {
		if raw := c.QueryParam("gym_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return 0, false
			}
			return uint(id), true
		}
	}

	if principal.GymID != nil {
		return *principal.GymID, true
	}
	return 0, false
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
