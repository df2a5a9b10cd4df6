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

// CreateClass adds a class slot to the effective gym's weekly schedule
func CreateClass(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("classes", "create")

	if !rbac.CanManageCalendar(principal) {
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
		CoachID     *uint  `json:"coach_id,omitempty"`
		DayOfWeek   int    `json:"day_of_week"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Capacity    int    `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse class creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_of_week must be between 0 and 6"})
	}

	class := model.Class{
		GymID:       gymID,
		Name:        req.Name,
		Description: req.Description,
		CoachID:     req.CoachID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Active:      true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&class).Error; err != nil {
		log.Error("Failed to create class", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "class creation failed"})
	}

	log.Info("Class created", zap.String("name", class.Name), zap.Uint("gym_id", gymID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

// ListClasses lists the effective gym's schedule, optionally for one weekday
func ListClasses(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCollectionOperation("classes", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if day := c.QueryParam("day"); day != "" {
		query = query.Where("day_of_week = ?", day)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var classes []model.Class
	if err := query.Order("day_of_week, start_time").Find(&classes).Error; err != nil {
		log.Error("Failed to list classes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve classes"})
	}

	return c.JSON(http.StatusOK, classes)
}

// UpdateClass edits a class slot
func UpdateClass(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("classes", "update")

	if !rbac.CanManageCalendar(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class ID"})
	}

	var class model.Class
	if err := database.GetDB().First(&class, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	}
	if !rbac.CanAccessGym(principal, class.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		CoachID     *uint   `json:"coach_id,omitempty"`
		DayOfWeek   *int    `json:"day_of_week,omitempty"`
		StartTime   *string `json:"start_time,omitempty"`
		EndTime     *string `json:"end_time,omitempty"`
		Capacity    *int    `json:"capacity,omitempty"`
		Active      *bool   `json:"active,omitempty"`
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
	if req.CoachID != nil {
		updates["coach_id"] = *req.CoachID
	}
	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "day_of_week must be between 0 and 6"})
		}
		updates["day_of_week"] = *req.DayOfWeek
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&class).Updates(updates).Error; err != nil {
		log.Error("Failed to update class", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "class update failed"})
	}

	log.Info("Class updated", zap.Uint("class_id", class.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Class updated successfully"})
}

// DeleteClass removes a class slot from the schedule
func DeleteClass(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("classes", "delete")

	if !rbac.CanManageCalendar(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class ID"})
	}

	var class model.Class
	if err := database.GetDB().First(&class, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	}
	if !rbac.CanAccessGym(principal, class.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&class).Error; err != nil {
		log.Error("Failed to delete class", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "class deletion failed"})
	}

	log.Info("Class deleted", zap.Uint("class_id", class.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Class deleted successfully"})
}
