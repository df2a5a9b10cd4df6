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

// CreateRanking publishes a leaderboard for the effective gym
func CreateRanking(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("rankings", "create")

	if !rbac.CanCreateLeaderboards(principal) {
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
		WodID       *uint  `json:"wod_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	if req.WodID != nil {
		var wod model.Wod
		if err := database.GetDB().First(&wod, *req.WodID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "wod not found"})
		}
		if wod.GymID != gymID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "wod belongs to a different gym"})
		}
	}

	ranking := model.Ranking{
		GymID:       gymID,
		Name:        req.Name,
		Description: req.Description,
		WodID:       req.WodID,
		Active:      true,
		CreatedBy:   principal.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&ranking).Error; err != nil {
		log.Error("Failed to create ranking", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ranking creation failed"})
	}

	log.Info("Ranking created", zap.String("name", ranking.Name), zap.Uint("gym_id", gymID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Ranking created successfully",
		"ranking": ranking,
	})
}

// ListRankings lists the effective gym's leaderboards
func ListRankings(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCollectionOperation("rankings", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rankings []model.Ranking
	if err := database.GetDB().
		Where("gym_id = ? AND active = ?", gymID, true).
		Order("created_at DESC").
		Find(&rankings).Error; err != nil {
		log.Error("Failed to list rankings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve rankings"})
	}

	return c.JSON(http.StatusOK, rankings)
}

// UpdateRanking edits or retires a leaderboard
func UpdateRanking(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("rankings", "update")

	if !rbac.CanCreateLeaderboards(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ranking ID"})
	}

	var ranking model.Ranking
	if err := database.GetDB().First(&ranking, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ranking not found"})
	}
	if !rbac.CanAccessGym(principal, ranking.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
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
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&ranking).Updates(updates).Error; err != nil {
		log.Error("Failed to update ranking", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ranking update failed"})
	}

	log.Info("Ranking updated", zap.Uint("ranking_id", ranking.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Ranking updated successfully"})
}

// DeleteRanking removes a leaderboard
func DeleteRanking(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("rankings", "delete")

	if !rbac.CanCreateLeaderboards(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ranking ID"})
	}

	var ranking model.Ranking
	if err := database.GetDB().First(&ranking, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ranking not found"})
	}
	if !rbac.CanAccessGym(principal, ranking.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&ranking).Error; err != nil {
		log.Error("Failed to delete ranking", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ranking deletion failed"})
	}

	log.Info("Ranking deleted", zap.Uint("ranking_id", ranking.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Ranking deleted successfully"})
}
