package handler

import (
	"net/http"
	"time"

	"fitpro-server/internal/middleware"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/database"
	"fitpro-server/pkg/logger"
	"fitpro-server/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateInvite creates an invite code for the effective gym
func CreateInvite(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageInvites(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		Role      string     `json:"role,omitempty"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
		MaxUses   *int       `json:"max_uses,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse invite creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Role == "" {
		req.Role = string(rbac.RoleAlumno)
	}
	if !rbac.Valid(rbac.Role(req.Role)) || rbac.Role(req.Role) == rbac.RoleSysadmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite role"})
	}
	if req.MaxUses != nil && *req.MaxUses < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_uses must be at least 1"})
	}

	invite := model.Invite{
		Code:      uuid.New().String(),
		GymID:     gymID,
		Role:      req.Role,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		MaxUses:   req.MaxUses,
		CreatedBy: principal.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&invite).Error; err != nil {
		log.Error("Failed to create invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite creation failed"})
	}

	log.Info("Invite created",
		zap.String("code", invite.Code),
		zap.Uint("gym_id", invite.GymID),
		zap.String("role", invite.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Invite created successfully",
		"invite":  invite,
	})
}

// ListInvites lists the effective gym's invites
func ListInvites(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageInvites(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invites []model.Invite
	if err := database.GetDB().Where("gym_id = ?", gymID).Order("created_at desc").Find(&invites).Error; err != nil {
		log.Error("Failed to list invites", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invites"})
	}

	return c.JSON(http.StatusOK, invites)
}

// UpdateInvite retires, reactivates or rebounds an invite. The use counter
// itself is only ever advanced by redemption.
func UpdateInvite(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageInvites(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite ID"})
	}

	var invite model.Invite
	if err := database.GetDB().First(&invite, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}
	if !rbac.CanAccessGym(principal, invite.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		IsActive  *bool      `json:"is_active,omitempty"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
		MaxUses   *int       `json:"max_uses,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}
	if req.MaxUses != nil {
		if *req.MaxUses < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_uses must be at least 1"})
		}
		updates["max_uses"] = *req.MaxUses
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&invite).Updates(updates).Error; err != nil {
		log.Error("Failed to update invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite update failed"})
	}

	log.Info("Invite updated", zap.Uint("invite_id", invite.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invite updated successfully"})
}

// DeleteInvite removes an invite. Optional: retiring via is_active is the
// normal path.
func DeleteInvite(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)

	if !rbac.CanManageInvites(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite ID"})
	}

	var invite model.Invite
	if err := database.GetDB().First(&invite, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}
	if !rbac.CanAccessGym(principal, invite.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&invite).Error; err != nil {
		log.Error("Failed to delete invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite deletion failed"})
	}

	log.Info("Invite deleted", zap.Uint("invite_id", invite.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invite deleted successfully"})
}
