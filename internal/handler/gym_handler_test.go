package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/internal/tenant"
	"fitpro-server/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupGymHandlers(t *testing.T) *gorm.DB {
	t.Helper()

	db := setupHandlerDB(t)

	prevAuth, prevResolver := authService, gymResolver
	Initialize(prevAuth, tenant.NewResolver(db))
	t.Cleanup(func() { Initialize(prevAuth, prevResolver) })

	return db
}

func sysadminUser() *model.User {
	return &model.User{ID: 1, Email: "root@fitpro.test", Role: string(rbac.RoleSysadmin), Active: true}
}

func TestSwitchGymUsesPathID(t *testing.T) {
	db := setupGymHandlers(t)

	require.NoError(t, db.Create(&model.Gym{Name: "Box Uno", Active: true}).Error)
	target := model.Gym{Name: "Box Dos", Active: true}
	require.NoError(t, db.Create(&target).Error)

	// No body: the target gym comes from the path alone.
	c, rec := newRequest(http.MethodPost, "/api/gyms/2/switch", "", sysadminUser())
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(target.ID)))
	require.NoError(t, SwitchGym(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string    `json:"token"`
		Gym   model.Gym `json:"gym"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Box Dos", resp.Gym.Name)

	claims, err := jwtutil.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.GymID)
	assert.Equal(t, target.ID, *claims.GymID)
}

func TestSwitchGymInvalidPathID(t *testing.T) {
	setupGymHandlers(t)

	c, rec := newRequest(http.MethodPost, "/api/gyms/abc/switch", "", sysadminUser())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, SwitchGym(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwitchGymRejectsNonSysadmin(t *testing.T) {
	db := setupGymHandlers(t)

	gym := model.Gym{Name: "Box Uno", Active: true}
	require.NoError(t, db.Create(&gym).Error)

	c, rec := newRequest(http.MethodPost, "/api/gyms/1/switch", "", coachAt(gym.ID))
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, SwitchGym(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSwitchGymUnknownGym(t *testing.T) {
	setupGymHandlers(t)

	c, rec := newRequest(http.MethodPost, "/api/gyms/99/switch", "", sysadminUser())
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, SwitchGym(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
