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

const wodDateLayout = "2006-01-02"

// CreateWod programs a workout of the day for the effective gym
func CreateWod(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("wods", "create")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		Date        string `json:"date"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Format      string `json:"format"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	date, err := time.Parse(wodDateLayout, req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be in YYYY-MM-DD format"})
	}

	wod := model.Wod{
		GymID:       gymID,
		Date:        date,
		Title:       req.Title,
		Description: req.Description,
		Format:      req.Format,
		CoachID:     principal.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&wod).Error; err != nil {
		log.Error("Failed to create WOD", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "WOD creation failed"})
	}

	log.Info("WOD created", zap.String("title", wod.Title), zap.String("date", req.Date))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "WOD created successfully",
		"wod":     wod,
	})
}

// ListWods lists the effective gym's WODs, optionally within a date range
func ListWods(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCollectionOperation("wods", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(wodDateLayout, from)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be in YYYY-MM-DD format"})
		}
		query = query.Where("date >= ?", t)
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(wodDateLayout, to)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be in YYYY-MM-DD format"})
		}
		query = query.Where("date <= ?", t)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var wods []model.Wod
	if err := query.Order("date DESC").Find(&wods).Error; err != nil {
		log.Error("Failed to list WODs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve WODs"})
	}

	return c.JSON(http.StatusOK, wods)
}

// GetWod returns one WOD
func GetWod(c echo.Context) error {
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("wods", "get")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid WOD ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var wod model.Wod
	if err := database.GetDB().First(&wod, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "WOD not found"})
	}
	if !rbac.CanAccessGym(principal, wod.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return c.JSON(http.StatusOK, wod)
}

// UpdateWod edits a programmed WOD
func UpdateWod(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("wods", "update")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid WOD ID"})
	}

	var wod model.Wod
	if err := database.GetDB().First(&wod, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "WOD not found"})
	}
	if !rbac.CanAccessGym(principal, wod.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Date        *string `json:"date,omitempty"`
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		Format      *string `json:"format,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Date != nil {
		t, err := time.Parse(wodDateLayout, *req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be in YYYY-MM-DD format"})
		}
		updates["date"] = t
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Format != nil {
		updates["format"] = *req.Format
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&wod).Updates(updates).Error; err != nil {
		log.Error("Failed to update WOD", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "WOD update failed"})
	}

	log.Info("WOD updated", zap.Uint("wod_id", wod.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "WOD updated successfully"})
}

// DeleteWod removes a programmed WOD
func DeleteWod(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("wods", "delete")

	if !rbac.CanCreateTrainingContent(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid WOD ID"})
	}

	var wod model.Wod
	if err := database.GetDB().First(&wod, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "WOD not found"})
	}
	if !rbac.CanAccessGym(principal, wod.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&wod).Error; err != nil {
		log.Error("Failed to delete WOD", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "WOD deletion failed"})
	}

	log.Info("WOD deleted", zap.Uint("wod_id", wod.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "WOD deleted successfully"})
}
