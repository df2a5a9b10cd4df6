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

// CreateEvent adds a one-off entry to the effective gym's calendar
func CreateEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("events", "create")

	if !rbac.CanManageCalendar(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartsAt    time.Time `json:"starts_at"`
		EndsAt      time.Time `json:"ends_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at is required"})
	}
	if !req.EndsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must not be before starts_at"})
	}

	event := model.Event{
		GymID:       gymID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   principal.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&event).Error; err != nil {
		log.Error("Failed to create event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event creation failed"})
	}

	log.Info("Event created", zap.String("title", event.Title), zap.Uint("gym_id", gymID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Event created successfully",
		"event":   event,
	})
}

// ListEvents lists the effective gym's calendar, upcoming first
func ListEvents(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCollectionOperation("events", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if c.QueryParam("upcoming") == "true" {
		query = query.Where("starts_at >= ?", time.Now())
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var events []model.Event
	if err := query.Order("starts_at").Find(&events).Error; err != nil {
		log.Error("Failed to list events", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve events"})
	}

	return c.JSON(http.StatusOK, events)
}

// UpdateEvent edits a calendar entry
func UpdateEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("events", "update")

	if !rbac.CanManageCalendar(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event ID"})
	}

	var event model.Event
	if err := database.GetDB().First(&event, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if !rbac.CanAccessGym(principal, event.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Title       *string    `json:"title,omitempty"`
		Description *string    `json:"description,omitempty"`
		Location    *string    `json:"location,omitempty"`
		StartsAt    *time.Time `json:"starts_at,omitempty"`
		EndsAt      *time.Time `json:"ends_at,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = *req.EndsAt
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&event).Updates(updates).Error; err != nil {
		log.Error("Failed to update event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event update failed"})
	}

	log.Info("Event updated", zap.Uint("event_id", event.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Event updated successfully"})
}

// DeleteEvent removes a calendar entry
func DeleteEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("events", "delete")

	if !rbac.CanManageCalendar(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event ID"})
	}

	var event model.Event
	if err := database.GetDB().First(&event, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if !rbac.CanAccessGym(principal, event.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&event).Error; err != nil {
		log.Error("Failed to delete event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event deletion failed"})
	}

	log.Info("Event deleted", zap.Uint("event_id", event.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}
