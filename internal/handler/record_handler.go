package handler

import (
	"net/http"
	"strconv"
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

// CreateRecord logs a personal record for the calling athlete. Records start
// unvalidated until a coach confirms them.
func CreateRecord(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("records", "create")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	var req struct {
		ExerciseID uint    `json:"exercise_id"`
		Value      float64 `json:"value"`
		Unit       string  `json:"unit"`
		AchievedAt string  `json:"achieved_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ExerciseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exercise_id is required"})
	}
	if req.Value <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be positive"})
	}

	var exercise model.Exercise
	if err := database.GetDB().First(&exercise, req.ExerciseID).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exercise not found"})
	}
	if exercise.GymID != gymID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exercise belongs to a different gym"})
	}

	achievedAt := time.Now()
	if req.AchievedAt != "" {
		t, err := time.Parse("2006-01-02", req.AchievedAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "achieved_at must be in YYYY-MM-DD format"})
		}
		achievedAt = t
	}

	record := model.PersonalRecord{
		GymID:      gymID,
		UserID:     principal.ID,
		ExerciseID: req.ExerciseID,
		Value:      req.Value,
		Unit:       req.Unit,
		AchievedAt: achievedAt,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&record).Error; err != nil {
		log.Error("Failed to create record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record creation failed"})
	}

	log.Info("Personal record logged",
		zap.Uint("user_id", principal.ID),
		zap.Uint("exercise_id", req.ExerciseID),
		zap.Float64("value", req.Value))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Record created successfully",
		"record":  record,
	})
}

// ListRecords lists records in the effective gym. Athletes see only their
// own; coaches may filter by user or validation state.
func ListRecords(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("records", "list")

	gymID, ok := effectiveGymID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gym context required"})
	}

	query := database.GetDB().Where("gym_id = ?", gymID)
	if rbac.CanValidateRecords(principal) {
		if userID := c.QueryParam("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
		if validated := c.QueryParam("validated"); validated != "" {
			v, err := strconv.ParseBool(validated)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "validated must be a boolean"})
			}
			query = query.Where("validated = ?", v)
		}
	} else {
		query = query.Where("user_id = ?", principal.ID)
	}
	if exerciseID := c.QueryParam("exercise_id"); exerciseID != "" {
		query = query.Where("exercise_id = ?", exerciseID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []model.PersonalRecord
	if err := query.Order("achieved_at DESC").Find(&records).Error; err != nil {
		log.Error("Failed to list records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve records"})
	}

	return c.JSON(http.StatusOK, records)
}

// ValidateRecord marks an athlete's record as confirmed by a coach
func ValidateRecord(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("records", "validate")

	if !rbac.CanValidateRecords(principal) {
		prometheus.RecordAuthError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record ID"})
	}

	var record model.PersonalRecord
	if err := database.GetDB().First(&record, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	}
	if !rbac.CanAccessGym(principal, record.GymID) {
		prometheus.RecordAuthError("gym_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	if record.Validated {
		return c.JSON(http.StatusOK, echo.Map{"message": "Record already validated"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updates := map[string]interface{}{
		"validated":    true,
		"validated_by": principal.ID,
	}
	if err := database.GetDB().Model(&record).Updates(updates).Error; err != nil {
		log.Error("Failed to validate record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record validation failed"})
	}

	log.Info("Record validated",
		zap.Uint("record_id", record.ID),
		zap.Uint("validator_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Record validated successfully"})
}

// DeleteRecord removes a record. Athletes may delete their own unvalidated
// records; coaches may delete any record in their gym.
func DeleteRecord(c echo.Context) error {
	log := logger.FromEcho(c)
	principal := middleware.Principal(c)
	prometheus.RecordCollectionOperation("records", "delete")

	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record ID"})
	}

	var record model.PersonalRecord
	if err := database.GetDB().First(&record, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
	}

	if rbac.CanValidateRecords(principal) {
		if !rbac.CanAccessGym(principal, record.GymID) {
			prometheus.RecordAuthError("gym_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	} else {
		if record.UserID != principal.ID {
			prometheus.RecordAuthError("permission_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
		if record.Validated {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "validated records cannot be deleted"})
		}
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&record).Error; err != nil {
		log.Error("Failed to delete record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record deletion failed"})
	}

	log.Info("Record deleted", zap.Uint("record_id", record.ID), zap.Uint("actor_id", principal.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Record deleted successfully"})
}
