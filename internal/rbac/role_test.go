package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAtLeast_TotalOrder(t *testing.T) {
	ordered := []Role{RoleAlumno, RoleProfesor, RoleAdmin, RoleSysadmin}

	for i, r := range ordered {
		for j, min := range ordered {
			got := HasAtLeast(r, min)
			want := i >= j
			assert.Equal(t, want, got, "HasAtLeast(%s, %s)", r, min)
		}
	}
}

func TestHasAtLeast_SysadminAlwaysPasses(t *testing.T) {
	for _, min := range []Role{RoleAlumno, RoleProfesor, RoleAdmin, RoleSysadmin} {
		assert.True(t, HasAtLeast(RoleSysadmin, min))
	}

	// Even against a role not in the hierarchy table.
	assert.True(t, HasAtLeast(RoleSysadmin, Role("owner")))
}

func TestHasAtLeast_UnknownRoleFailsClosed(t *testing.T) {
	assert.False(t, HasAtLeast(Role("owner"), RoleAlumno))
	assert.False(t, HasAtLeast(Role(""), RoleAlumno))
	assert.False(t, HasAtLeast(RoleAdmin, Role("owner")))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(RoleAlumno))
	assert.True(t, Valid(RoleProfesor))
	assert.True(t, Valid(RoleAdmin))
	assert.True(t, Valid(RoleSysadmin))
	assert.False(t, Valid(Role("coach")))
	assert.False(t, Valid(Role("")))
}
