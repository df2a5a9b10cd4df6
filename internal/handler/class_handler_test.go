package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	prev := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(prev) })
	return db
}

// newRequest builds an echo context with the given principal already
// resolved, the way AuthMiddleware leaves it.
func newRequest(method, path, body string, principal *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set("principal", principal)
	}
	return c, rec
}

func coachAt(gymID uint) *model.User {
	return &model.User{ID: 5, Email: "coach@box.test", Role: string(rbac.RoleProfesor), GymID: &gymID, Active: true}
}

func athleteAt(gymID uint) *model.User {
	return &model.User{ID: 6, Email: "athlete@box.test", Role: string(rbac.RoleAlumno), GymID: &gymID, Active: true}
}

func TestCreateClassRejectsAthlete(t *testing.T) {
	setupHandlerDB(t)

	c, rec := newRequest(http.MethodPost, "/api/classes", `{"name":"Open Box","day_of_week":1}`, athleteAt(1))
	require.NoError(t, CreateClass(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateClassValidatesDayOfWeek(t *testing.T) {
	setupHandlerDB(t)

	c, rec := newRequest(http.MethodPost, "/api/classes", `{"name":"Open Box","day_of_week":7}`, coachAt(1))
	require.NoError(t, CreateClass(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateClassBindsToOwnGym(t *testing.T) {
	db := setupHandlerDB(t)

	c, rec := newRequest(http.MethodPost, "/api/classes",
		`{"name":"WOD 18:00","day_of_week":2,"start_time":"18:00","end_time":"19:00","capacity":16}`,
		coachAt(3))
	require.NoError(t, CreateClass(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored model.Class
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, uint(3), stored.GymID)
	assert.Equal(t, "WOD 18:00", stored.Name)
	assert.True(t, stored.Active)
}

func TestListClassesScopedToGym(t *testing.T) {
	db := setupHandlerDB(t)

	require.NoError(t, db.Create(&model.Class{GymID: 1, Name: "Ours", DayOfWeek: 1}).Error)
	require.NoError(t, db.Create(&model.Class{GymID: 2, Name: "Theirs", DayOfWeek: 1}).Error)

	c, rec := newRequest(http.MethodGet, "/api/classes", "", athleteAt(1))
	require.NoError(t, ListClasses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var classes []model.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes, 1)
	assert.Equal(t, "Ours", classes[0].Name)
}

func TestListClassesSysadminGymOverride(t *testing.T) {
	db := setupHandlerDB(t)

	require.NoError(t, db.Create(&model.Class{GymID: 2, Name: "Remote", DayOfWeek: 4}).Error)

	sysadmin := &model.User{ID: 1, Email: "root@fitpro.test", Role: string(rbac.RoleSysadmin), Active: true}
	c, rec := newRequest(http.MethodGet, "/api/classes?gym_id=2", "", sysadmin)
	require.NoError(t, ListClasses(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var classes []model.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes, 1)
	assert.Equal(t, "Remote", classes[0].Name)
}

func TestUpdateClassCrossGymDenied(t *testing.T) {
	db := setupHandlerDB(t)

	class := model.Class{GymID: 2, Name: "Theirs", DayOfWeek: 1}
	require.NoError(t, db.Create(&class).Error)

	c, rec := newRequest(http.MethodPatch, "/api/classes/1", `{"name":"Hijacked"}`, coachAt(1))
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, UpdateClass(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var reread model.Class
	require.NoError(t, db.First(&reread, class.ID).Error)
	assert.Equal(t, "Theirs", reread.Name)
}

func TestDeleteClass(t *testing.T) {
	db := setupHandlerDB(t)

	class := model.Class{GymID: 1, Name: "Old Slot", DayOfWeek: 1}
	require.NoError(t, db.Create(&class).Error)

	c, rec := newRequest(http.MethodDelete, "/api/classes/1", "", coachAt(1))
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, DeleteClass(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.Class{}).Count(&count)
	assert.Zero(t, count)
}
