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

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateRoutine creates a training plan, optionally assigned to one athlete
func CreateRoutine(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("routines", "create")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Blocks      string `json:"blocks"`
		AssigneeID  *uint  `json:"assignee_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if req.AssigneeID != nil {
		var assignee model.User
		if err := database.GetDB().First(&assignee, *req.AssigneeID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee not found"})
		}
		if assignee.GymID == nil || *assignee.GymID != gymID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee belongs to a different gym"})
		}
	}

	routine := model.Routine{
		GymID:       gymID,
		Name:        req.Name,
		Description: req.Description,
		Blocks:      req.Blocks,
		CoachID:     principal.ID,
		AssigneeID:  req.AssigneeID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&routine).Error; err != nil {
		log.Error("Failed to create routine", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "routine creation failed"})
	}

	log.Info("Routine created", zap.String("name", routine.Name), zap.Uint("coach_id", principal.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Routine created successfully",
		"routine": routine,
	})
}

// ListRoutines lists routines visible to the caller. Athletes see gym-wide
// routines plus their own assignments; coaches see everything in the gym.
func ListRoutines(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("routines", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if !rbac.CanCreateTrainingContent(principal) {
		query = query.Where("assignee_id IS NULL OR assignee_id = ?", principal.ID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var routines []model.Routine
	if err := query.Order("created_at DESC").Find(&routines).Error; err != nil {
		log.Error("Failed to list routines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve routines"})
	}

	return c.JSON(http.StatusOK, routines)
}

// UpdateRoutine edits a routine's plan or assignment
func UpdateRoutine(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("routines", "update")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid routine ID"})
	}

	var routine model.Routine
	if err := database.GetDB().First(&routine, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "routine not found"})
	}
	if !rbac.CanAccessGym(principal, routine.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Blocks      *string `json:"blocks,omitempty"`
		AssigneeID  *uint   `json:"assignee_id,omitempty"`
		Unassign    bool    `json:"unassign,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Blocks != nil {
		updates["blocks"] = *req.Blocks
	}
	if req.Unassign {
		updates["assignee_id"] = nil
	} else if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&routine).Updates(updates).Error; err != nil {
		log.Error("Failed to update routine", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "routine update failed"})
	}

	log.Info("Routine updated", zap.Uint("routine_id", routine.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Routine updated successfully"})
}

// DeleteRoutine removes a routine
func DeleteRoutine(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("routines", "delete")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid routine ID"})
	}

	var routine model.Routine
	if err := database.GetDB().First(&routine, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "routine not found"})
	}
	if !rbac.CanAccessGym(principal, routine.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&routine).Error; err != nil {
		log.Error("Failed to delete routine", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "routine deletion failed"})
	}

	log.Info("Routine deleted", zap.Uint("routine_id", routine.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Routine deleted successfully"})
}
