package rbac

import (
	"testing"

	"fitpro-server/internal/model"

	"github.com/stretchr/testify/assert"
)

func userWithRole(role Role) *model.User {
	gymID := uint(1)
	return &model.User{ID: 10, Email: "u@example.com", Role: string(role), GymID: &gymID, Active: true}
}

// allPredicates lists every permission predicate so fail-closed and
// sysadmin-universal behavior can be asserted across the board.
var allPredicates = map[string]func(*model.User) bool{
	"CanManageGyms":            CanManageGyms,
	"CanAssignSysadminRole":    CanAssignSysadminRole,
	"CanAssignAdminRole":       CanAssignAdminRole,
	"CanManageCoaches":         CanManageCoaches,
	"CanManageMembers":         CanManageMembers,
	"CanCreateTrainingContent": CanCreateTrainingContent,
	"CanManageCalendar":        CanManageCalendar,
	"CanManageAnnouncements":   CanManageAnnouncements,
	"CanValidateRecords":       CanValidateRecords,
	"CanCreateLeaderboards":    CanCreateLeaderboards,
	"CanManageInvites":         CanManageInvites,
	"CanManageGymSettings":     CanManageGymSettings,
}

func TestPredicates_NilUserFailsClosed(t *testing.T) {
	for name, pred := range allPredicates {
		assert.False(t, pred(nil), "%s(nil)", name)
	}
	assert.False(t, CanAccessGym(nil, 1))
}

func TestPredicates_InactiveUserFailsClosed(t *testing.T) {
	u := userWithRole(RoleSysadmin)
	u.Active = false
	for name, pred := range allPredicates {
		assert.False(t, pred(u), "%s(inactive)", name)
	}
}

func TestPredicates_SysadminAlwaysTrue(t *testing.T) {
	// Sysadmin with no gym binding still passes every predicate.
	u := &model.User{ID: 1, Email: "root@example.com", Role: string(RoleSysadmin), GymID: nil, Active: true}
	for name, pred := range allPredicates {
		assert.True(t, pred(u), "%s(sysadmin)", name)
	}
}

func TestPredicates_UnknownRoleFailsClosed(t *testing.T) {
	u := userWithRole(Role("owner"))
	for name, pred := range allPredicates {
		assert.False(t, pred(u), "%s(unknown role)", name)
	}
}

func TestPredicates_MinimumRoles(t *testing.T) {
	admin := userWithRole(RoleAdmin)
	profesor := userWithRole(RoleProfesor)
	alumno := userWithRole(RoleAlumno)

	// Admin-tier actions.
	for name, pred := range map[string]func(*model.User) bool{
		"CanAssignAdminRole":     CanAssignAdminRole,
		"CanManageCoaches":       CanManageCoaches,
		"CanManageAnnouncements": CanManageAnnouncements,
		"CanManageInvites":       CanManageInvites,
		"CanManageGymSettings":   CanManageGymSettings,
	} {
		assert.True(t, pred(admin), "%s(admin)", name)
		assert.False(t, pred(profesor), "%s(profesor)", name)
		assert.False(t, pred(alumno), "%s(alumno)", name)
	}

	// Coach-tier actions.
	for name, pred := range map[string]func(*model.User) bool{
		"CanManageMembers":         CanManageMembers,
		"CanCreateTrainingContent": CanCreateTrainingContent,
		"CanManageCalendar":        CanManageCalendar,
		"CanValidateRecords":       CanValidateRecords,
		"CanCreateLeaderboards":    CanCreateLeaderboards,
	} {
		assert.True(t, pred(admin), "%s(admin)", name)
		assert.True(t, pred(profesor), "%s(profesor)", name)
		assert.False(t, pred(alumno), "%s(alumno)", name)
	}

	// Sysadmin-tier actions.
	assert.False(t, CanManageGyms(admin))
	assert.False(t, CanAssignSysadminRole(admin))
}

func TestAlumnoCannotManageAnnouncements(t *testing.T) {
	assert.False(t, CanManageAnnouncements(userWithRole(RoleAlumno)))
}

func TestCanAccessGym(t *testing.T) {
	sysadmin := &model.User{ID: 1, Role: string(RoleSysadmin), GymID: nil, Active: true}
	assert.True(t, CanAccessGym(sysadmin, 1))
	assert.True(t, CanAccessGym(sysadmin, 99))

	member := userWithRole(RoleAlumno) // bound to gym 1
	assert.True(t, CanAccessGym(member, 1))
	assert.False(t, CanAccessGym(member, 2))

	unbound := &model.User{ID: 2, Role: string(RoleAdmin), GymID: nil, Active: true}
	assert.False(t, CanAccessGym(unbound, 1))
}
