package handler

import (
	"errors"
	"net/http"
	"time"

	"fitpro-server/internal/middleware"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/database"
	"fitpro-server/pkg/logger"
	"fitpro-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GetProfile returns the caller's own user record
func GetProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, principal.ID).Error; err != nil {
		log.Error("Profile not found", zap.Uint("user_id", principal.ID), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the caller's own name and phone
func UpdateProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	var req struct {
		Name  *string `json:"name,omitempty"`
		Phone *string `json:"phone,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&model.User{}).Where("id = ?", principal.ID).Updates(updates).Error; err != nil {
		log.Error("Failed to update profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}

	log.Info("Profile updated", zap.Uint("user_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// ChangePassword verifies the current password and installs a new one
func ChangePassword(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, principal.ID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Warn("Password change with wrong current password", zap.Uint("user_id", user.ID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// ListUsers lists the members of the effective gym, optionally filtered by
// role. Coaches and above.
func ListUsers(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageMembers(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := query.Order("name").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, users)
}

// canManageTarget enforces tier discipline: a non-sysadmin may only manage
// strictly lower-ranked users inside their own gym.
func canManageTarget(actor *model.User, target *model.User) bool {
	if actor == nil {
		return false
	}
	if rbac.Role(actor.Role) == rbac.RoleSysadmin {
		return true
	}
	if target.GymID == nil || actor.GymID == nil || *target.GymID != *actor.GymID {
		return false
	}
	return rbac.HasAtLeast(rbac.Role(actor.Role), rbac.Role(target.Role)) && actor.Role != target.Role
}

// roleAssignmentAllowed maps the role being granted to its gate predicate.
func roleAssignmentAllowed(actor *model.User, newRole rbac.Role) bool {
	switch newRole {
	case rbac.RoleSysadmin:
		return rbac.CanAssignSysadminRole(actor)
	case rbac.RoleAdmin:
		return rbac.CanAssignAdminRole(actor)
	case rbac.RoleProfesor:
		return rbac.CanManageCoaches(actor)
	case rbac.RoleAlumno:
		return rbac.CanManageMembers(actor)
	default:
		return false
	}
}

// UpdateUserRole reassigns a user's role
func UpdateUserRole(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	newRole := rbac.Role(req.Role)
	if !rbac.Valid(newRole) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var target model.User
	if err := database.GetDB().First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("User lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
	}

	if !canManageTarget(principal, &target) || !roleAssignmentAllowed(principal, newRole) {
		log.Warn("Unauthorized role reassignment attempt",
			zap.Uint("actor_id", principal.ID),
			zap.Uint("target_id", target.ID),
			zap.String("new_role", req.Role))
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	updates := map[string]interface{}{"role": req.Role}
	if newRole == rbac.RoleSysadmin {
		// Sysadmins operate across gyms and carry no binding.
		updates["gym_id"] = nil
	}

	if err := database.GetDB().Model(&target).Updates(updates).Error; err != nil {
		log.Error("Failed to update role", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role update failed"})
	}

	log.Info("User role updated",
		zap.Uint("user_id", target.ID),
		zap.String("role", req.Role),
		zap.Uint("actor_id", principal.ID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Role updated successfully"})
}

// UpdateUserGym permanently reassigns a user to another gym. Sysadmin only.
// This is the persistent counterpart to the sysadmin's view switch.
func UpdateUserGym(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageGyms(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		GymID *uint `json:"gym_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.GymID != nil {
		var gym model.Gym
		if err := database.GetDB().First(&gym, *req.GymID).Error; err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "gym not found"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.User{}).Where("id = ?", id).Update("gym_id", req.GymID)
	if result.Error != nil {
		log.Error("Failed to reassign gym", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gym reassignment failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	log.Info("User gym reassigned", zap.Uint("user_id", id), zap.Any("gym_id", req.GymID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User gym updated successfully"})
}

// SetUserActive toggles a user's active flag
func SetUserActive(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var target model.User
	if err := database.GetDB().First(&target, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !canManageTarget(principal, &target) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&target).Update("active", req.Active).Error; err != nil {
		log.Error("Failed to toggle active flag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("User active flag updated",
		zap.Uint("user_id", target.ID),
		zap.Bool("active", req.Active))
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully"})
}

// DeleteUser removes a user account. Admins and above.
func DeleteUser(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageCoaches(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var target model.User
	if err := database.GetDB().First(&target, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if !canManageTarget(principal, &target) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&target).Error; err != nil {
		log.Error("Failed to delete user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}

	log.Info("User deleted", zap.Uint("user_id", target.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
