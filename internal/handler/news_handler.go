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

// CreateNews creates an announcement. It stays a draft until published
// unless publish is set on creation.
func CreateNews(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("news", "create")

	if !rbac.CanManageAnnouncements(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		Title   string `json:"title"`
		Body    string `json:"body"`
		Pinned  bool   `json:"pinned"`
		Publish bool   `json:"publish"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	news := model.News{
		GymID:    gymID,
		Title:    req.Title,
		Body:     req.Body,
		Pinned:   req.Pinned,
		AuthorID: principal.ID,
	}
	if req.Publish {
		now := time.Now()
		news.PublishedAt = &now
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&news).Error; err != nil {
		log.Error("Failed to create announcement", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "announcement creation failed"})
	}

	log.Info("Announcement created",
		zap.String("title", news.Title),
		zap.Bool("published", news.PublishedAt != nil))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Announcement created successfully",
		"news":    news,
	})
}

// ListNews lists announcements for the effective gym, pinned first.
// Members see only published entries; managers also see drafts.
func ListNews(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("news", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if !rbac.CanManageAnnouncements(principal) {
		query = query.Where("published_at IS NOT NULL")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var items []model.News
	if err := query.Order("pinned DESC, created_at DESC").Find(&items).Error; err != nil {
		log.Error("Failed to list announcements", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve announcements"})
	}

	return c.JSON(http.StatusOK, items)
}

// PublishNews publishes a draft announcement
func PublishNews(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("news", "publish")

	if !rbac.CanManageAnnouncements(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement ID"})
	}

	var news model.News
	if err := database.GetDB().First(&news, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}
	if !rbac.CanAccessGym(principal, news.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	if news.PublishedAt != nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "Announcement already published"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	now := time.Now()
	if err := database.GetDB().Model(&news).Update("published_at", &now).Error; err != nil {
		log.Error("Failed to publish announcement", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "announcement publish failed"})
	}

	log.Info("Announcement published", zap.Uint("news_id", news.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Announcement published successfully"})
}

// UpdateNews edits an announcement's content or pin state
func UpdateNews(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("news", "update")

	if !rbac.CanManageAnnouncements(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement ID"})
	}

	var news model.News
	if err := database.GetDB().First(&news, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}
	if !rbac.CanAccessGym(principal, news.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Title  *string `json:"title,omitempty"`
		Body   *string `json:"body,omitempty"`
		Pinned *bool   `json:"pinned,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Pinned != nil {
		updates["pinned"] = *req.Pinned
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&news).Updates(updates).Error; err != nil {
		log.Error("Failed to update announcement", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "announcement update failed"})
	}

	log.Info("Announcement updated", zap.Uint("news_id", news.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Announcement updated successfully"})
}

// DeleteNews removes an announcement
func DeleteNews(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("news", "delete")

	if !rbac.CanManageAnnouncements(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement ID"})
	}

	var news model.News
	if err := database.GetDB().First(&news, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}
	if !rbac.CanAccessGym(principal, news.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&news).Error; err != nil {
		log.Error("Failed to delete announcement", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "announcement deletion failed"})
	}

	log.Info("Announcement deleted", zap.Uint("news_id", news.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Announcement deleted successfully"})
}
