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

// CreateExercise adds a movement to the effective gym's exercise library
func CreateExercise(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("exercises", "create")

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
		Category    string `json:"category"`
		VideoURL    string `json:"video_url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	exercise := model.Exercise{
		GymID:       gymID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		VideoURL:    req.VideoURL,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&exercise).Error; err != nil {
		log.Error("Failed to create exercise", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "exercise creation failed"})
	}

	log.Info("Exercise created", zap.String("name", exercise.Name), zap.Uint("gym_id", gymID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Exercise created successfully",
		"exercise": exercise,
	})
}

// ListExercises lists the effective gym's exercise library
func ListExercises(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCollectionOperation("exercises", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var exercises []model.Exercise
	if err := query.Order("name").Find(&exercises).Error; err != nil {
		log.Error("Failed to list exercises", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve exercises"})
	}

	return c.JSON(http.StatusOK, exercises)
}

// UpdateExercise edits an exercise entry
func UpdateExercise(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("exercises", "update")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exercise ID"})
	}

	var exercise model.Exercise
	if err := database.GetDB().First(&exercise, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exercise not found"})
	}
	if !rbac.CanAccessGym(principal, exercise.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Category    *string `json:"category,omitempty"`
		VideoURL    *string `json:"video_url,omitempty"`
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
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.VideoURL != nil {
		updates["video_url"] = *req.VideoURL
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&exercise).Updates(updates).Error; err != nil {
		log.Error("Failed to update exercise", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "exercise update failed"})
	}

	log.Info("Exercise updated", zap.Uint("exercise_id", exercise.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Exercise updated successfully"})
}

// DeleteExercise removes an exercise from the library
func DeleteExercise(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("exercises", "delete")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exercise ID"})
	}

	var exercise model.Exercise
	if err := database.GetDB().First(&exercise, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exercise not found"})
	}
	if !rbac.CanAccessGym(principal, exercise.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&exercise).Error; err != nil {
		log.Error("Failed to delete exercise", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "exercise deletion failed"})
	}

	log.Info("Exercise deleted", zap.Uint("exercise_id", exercise.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Exercise deleted successfully"})
}
