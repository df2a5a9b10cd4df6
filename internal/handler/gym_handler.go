package handler

import (
	"encoding/json"
	"fmt"
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

// CreateGym handles gym creation. Sysadmin only.
func CreateGym(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("create")

	if !rbac.CanManageGyms(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	var req struct {
		Name         string `json:"name"`
		Address      string `json:"address"`
		ContactEmail string `json:"contact_email"`
		ContactPhone string `json:"contact_phone"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse gym creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	gym := model.Gym{
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Active:       true,
		Palette:      "default",
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&gym).Error; err != nil {
		log.Error("Failed to create gym", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gym creation failed"})
	}

	prometheus.ActiveGymsGauge.Inc()
	gymResolver.NotifyChanged(c.Request().Context())

	log.Info("Gym created", zap.String("name", gym.Name), zap.Uint("id", gym.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Gym created successfully",
		"gym":     gym,
	})
}

// ListGyms returns the full gym catalog. Sysadmin only.
func ListGyms(c echo.Context) error {
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("list")

	gyms, err := gymResolver.Catalog(c.Request().Context(), principal)
	if err != nil {
		prometheus.RecordAuthError("permission_denied")
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, gyms)
}

// WatchGyms streams gym-catalog snapshots as server-sent events. Sysadmin
// only. The subscription is torn down when the client disconnects.
func WatchGyms(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("watch")

	updates, unsubscribe, err := gymResolver.Watch(principal)
	if err != nil {
		prometheus.RecordAuthError("permission_denied")
		return respondError(c, err)
	}
	defer unsubscribe()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	// Send the current catalog immediately so the client does not wait for
	// the first mutation.
	gyms, err := gymResolver.Catalog(c.Request().Context(), principal)
	if err == nil {
		writeGymEvent(c, gyms)
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Gym watch closed", zap.Uint("user_id", principal.ID))
			return nil
		case snapshot, ok := <-updates:
			if !ok {
				return nil
			}
			writeGymEvent(c, snapshot)
		}
	}
}

func writeGymEvent(c echo.Context, gyms []model.Gym) {
	payload, err := json.Marshal(gyms)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", payload)
	c.Response().Flush()
}

// GetCurrentGym returns the caller's current gym context, or a null gym when
// the binding is missing or the gym is inactive (the tenant-less empty
// state).
func GetCurrentGym(c echo.Context) error {
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("access")

	gym, err := gymResolver.Resolve(c.Request().Context(), principal)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"gym": gym})
}

// GetGym retrieves one gym's details
func GetGym(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("access")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid gym ID"})
	}

	if !rbac.CanAccessGym(principal, id) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var gym model.Gym
	if err := database.GetDB().First(&gym, id).Error; err != nil {
		log.Error("Gym not found", zap.Uint("id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "gym not found"})
	}

	return c.JSON(http.StatusOK, gym)
}

// UpdateGymSettings updates a gym's theme and contact settings
func UpdateGymSettings(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("update")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid gym ID"})
	}

	if !rbac.CanManageGymSettings(principal) || !rbac.CanAccessGym(principal, id) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	var req struct {
		Name         *string `json:"name,omitempty"`
		Address      *string `json:"address,omitempty"`
		ContactEmail *string `json:"contact_email,omitempty"`
		ContactPhone *string `json:"contact_phone,omitempty"`
		Palette      *string `json:"palette,omitempty"`
		DarkMode     *bool   `json:"dark_mode,omitempty"`
		LogoURL      *string `json:"logo_url,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		updates["contact_phone"] = *req.ContactPhone
	}
	if req.Palette != nil {
		updates["palette"] = *req.Palette
	}
	if req.DarkMode != nil {
		updates["dark_mode"] = *req.DarkMode
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.Gym{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update gym settings", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gym update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "gym not found"})
	}

	gymResolver.NotifyChanged(c.Request().Context())

	log.Info("Gym settings updated", zap.Uint("gym_id", id), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Gym updated successfully"})
}

// SetGymActive toggles a gym's activation state. Sysadmin only.
func SetGymActive(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("activate")

	if !rbac.CanManageGyms(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid gym ID"})
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.Gym{}).Where("id = ?", id).Update("active", req.Active)
	if result.Error != nil {
		log.Error("Failed to toggle gym activation", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gym update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "gym not found"})
	}

	if req.Active {
		prometheus.ActiveGymsGauge.Inc()
	} else {
		prometheus.ActiveGymsGauge.Dec()
	}
	gymResolver.NotifyChanged(c.Request().Context())

	log.Info("Gym activation updated", zap.Uint("gym_id", id), zap.Bool("active", req.Active))
	return c.JSON(http.StatusOK, echo.Map{"message": "Gym updated successfully"})
}

// SwitchGym issues a token viewing another gym. Sysadmin only; the caller's
// stored gym binding is untouched.
func SwitchGym(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordGymOperation("switch")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid gym ID"})
	}

	token, gym, err := gymResolver.Switch(c.Request().Context(), principal, id)
	if err != nil {
		log.Warn("Gym switch rejected",
			zap.Uint("user_id", principal.ID),
			zap.Uint("gym_id", id),
			zap.Error(err))
		return respondError(c, err)
	}

	prometheus.IncreaseActiveTokens()

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"gym":   gym,
	})
}
