package tenant

import (
	"context"
	"os"
	"testing"
	"time"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/config"
	"fitpro-server/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
	os.Exit(m.Run())
}

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Gym{}, &model.User{}))

	return NewResolver(db), db
}

func createGym(t *testing.T, db *gorm.DB, name string, active bool) model.Gym {
	t.Helper()
	gym := model.Gym{Name: name, Active: active}
	require.NoError(t, db.Create(&gym).Error)
	return gym
}

func sysadmin() *model.User {
	return &model.User{ID: 1, Email: "root@fitpro.test", Role: string(rbac.RoleSysadmin), Active: true}
}

func memberOf(gymID uint) *model.User {
	return &model.User{ID: 2, Email: "member@box.test", Role: string(rbac.RoleAlumno), GymID: &gymID, Active: true}
}

func TestResolveBoundUser(t *testing.T) {
	r, db := newTestResolver(t)
	gym := createGym(t, db, "Box Uno", true)

	resolved, err := r.Resolve(context.Background(), memberOf(gym.ID))
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, gym.ID, resolved.ID)
}

func TestResolveEmptyStates(t *testing.T) {
	r, db := newTestResolver(t)
	inactive := createGym(t, db, "Closed Box", false)

	// No principal, no binding, missing gym and inactive gym all resolve to
	// a nil gym with no error.
	cases := []*model.User{
		nil,
		{ID: 3, Role: string(rbac.RoleAlumno), Active: true},
		memberOf(inactive.ID + 100),
		memberOf(inactive.ID),
	}
	for _, user := range cases {
		resolved, err := r.Resolve(context.Background(), user)
		assert.NoError(t, err)
		assert.Nil(t, resolved)
	}
}

func TestCatalogRequiresSysadmin(t *testing.T) {
	r, db := newTestResolver(t)
	gym := createGym(t, db, "Box Uno", true)
	createGym(t, db, "Box Dos", true)

	_, err := r.Catalog(context.Background(), memberOf(gym.ID))
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	admin := memberOf(gym.ID)
	admin.Role = string(rbac.RoleAdmin)
	_, err = r.Catalog(context.Background(), admin)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	gyms, err := r.Catalog(context.Background(), sysadmin())
	require.NoError(t, err)
	assert.Len(t, gyms, 2)
}

func TestWatchRequiresSysadmin(t *testing.T) {
	r, db := newTestResolver(t)
	gym := createGym(t, db, "Box Uno", true)

	_, _, err := r.Watch(memberOf(gym.ID))
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	ch, unsubscribe, err := r.Watch(sysadmin())
	require.NoError(t, err)
	require.NotNil(t, ch)
	defer unsubscribe()

	assert.Equal(t, 1, r.hub.subscriberCount())
}

func TestWatchReceivesCatalogUpdates(t *testing.T) {
	r, db := newTestResolver(t)
	createGym(t, db, "Box Uno", true)

	ch, unsubscribe, err := r.Watch(sysadmin())
	require.NoError(t, err)
	defer unsubscribe()

	r.NotifyChanged(context.Background())

	select {
	case gyms := <-ch:
		assert.Len(t, gyms, 1)
	case <-time.After(time.Second):
		t.Fatal("expected a catalog snapshot")
	}
}

func TestWatchKeepsOnlyLatestSnapshot(t *testing.T) {
	r, db := newTestResolver(t)
	createGym(t, db, "Box Uno", true)

	ch, unsubscribe, err := r.Watch(sysadmin())
	require.NoError(t, err)
	defer unsubscribe()

	// Two broadcasts without a read: the subscriber sees only the second.
	r.NotifyChanged(context.Background())
	createGym(t, db, "Box Dos", true)
	r.NotifyChanged(context.Background())

	select {
	case gyms := <-ch:
		assert.Len(t, gyms, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a catalog snapshot")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	r, _ := newTestResolver(t)

	ch, unsubscribe, err := r.Watch(sysadmin())
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, r.hub.subscriberCount())

	_, open := <-ch
	assert.False(t, open, "channel must be closed after unsubscribe")

	// A closed subscription never sees later broadcasts.
	r.hub.broadcast([]model.Gym{{Name: "Box Uno"}})
}

func TestSwitchIssuesViewToken(t *testing.T) {
	r, db := newTestResolver(t)
	gym := createGym(t, db, "Box Uno", true)

	admin := sysadmin()
	token, switched, err := r.Switch(context.Background(), admin, gym.ID)
	require.NoError(t, err)
	require.NotNil(t, switched)
	assert.Equal(t, gym.ID, switched.ID)

	claims, err := jwtutil.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.GymID)
	assert.Equal(t, gym.ID, *claims.GymID)
	assert.Equal(t, "Box Uno", claims.GymName)

	// Switching changes the view, never the stored binding.
	assert.Nil(t, admin.GymID)
}

func TestSwitchFailures(t *testing.T) {
	r, db := newTestResolver(t)
	gym := createGym(t, db, "Box Uno", true)

	_, _, err := r.Switch(context.Background(), memberOf(gym.ID), gym.ID)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	_, _, err = r.Switch(context.Background(), sysadmin(), gym.ID+100)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}
