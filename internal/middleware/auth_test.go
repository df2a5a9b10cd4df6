package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/database"
	"fitpro-server/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMiddlewareDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	prev := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(prev) })
	return db
}

func runAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := AuthMiddleware(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestAuthMiddlewareAcceptsActiveUser(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := model.User{Email: "member@box.test", Role: string(rbac.RoleAlumno), Active: true}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	require.NoError(t, err)

	rec, reached := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestAuthMiddlewareRejectsDeactivatedUser(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := model.User{Email: "member@box.test", Role: string(rbac.RoleAlumno), Active: true}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	require.NoError(t, err)

	// Deactivation must lock the account out even while the token is valid.
	require.NoError(t, db.Model(&user).Update("active", false).Error)

	rec, reached := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	db := setupMiddlewareDB(t)

	user := model.User{Email: "member@box.test", Role: string(rbac.RoleAlumno), Active: true}
	require.NoError(t, db.Create(&user).Error)

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&user).Error)

	rec, reached := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	setupMiddlewareDB(t)

	rec, reached := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	rec, reached = runAuth(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	rec, reached = runAuth(t, "Bearer garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}
