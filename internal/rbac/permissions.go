package rbac

import "fitpro-server/internal/model"

// Every predicate takes the resolved user and fails closed: a nil or
// inactive user satisfies nothing. Sysadmin satisfies everything through
// HasAtLeast, regardless of gym binding.

func userHasAtLeast(u *model.User, min Role) bool {
	if u == nil || !u.Active {
		return false
	}
	return HasAtLeast(Role(u.Role), min)
}

// CanManageGyms gates creating, activating and deactivating gyms.
func CanManageGyms(u *model.User) bool {
	return userHasAtLeast(u, RoleSysadmin)
}

// CanAssignSysadminRole gates granting the sysadmin role.
func CanAssignSysadminRole(u *model.User) bool {
	return userHasAtLeast(u, RoleSysadmin)
}

// CanAssignAdminRole gates granting the admin role.
func CanAssignAdminRole(u *model.User) bool {
	return userHasAtLeast(u, RoleAdmin)
}

// CanManageCoaches gates creating and editing coach accounts.
func CanManageCoaches(u *model.User) bool {
	return userHasAtLeast(u, RoleAdmin)
}

// CanManageMembers gates listing and editing member accounts.
func CanManageMembers(u *model.User) bool {
	return userHasAtLeast(u, RoleProfesor)
}

// CanCreateTrainingContent gates routines, exercises and workouts of the day.
func CanCreateTrainingContent(u *model.User) bool {
	return userHasAtLeast(u, RoleProfesor)
}

// CanManageCalendar gates the class schedule and calendar events.
func CanManageCalendar(u *model.User) bool {
	return userHasAtLeast(u, RoleProfesor)
}

// CanManageAnnouncements gates the gym news board.
func CanManageAnnouncements(u *model.User) bool {
	return userHasAtLeast(u, RoleAdmin)
}

// CanValidateRecords gates marking personal records as validated.
func CanValidateRecords(u *model.User) bool {
	return userHasAtLeast(u, RoleProfesor)
}

// CanCreateLeaderboards gates publishing rankings.
func CanCreateLeaderboards(u *model.User) bool {
	return userHasAtLeast(u, RoleProfesor)
}

// CanManageInvites gates creating and retiring invite codes.
func CanManageInvites(u *model.User) bool {
	return userHasAtLeast(u, RoleAdmin)
}

// CanManageGymSettings gates a gym's theme and contact settings.
func CanManageGymSettings(u *model.User) bool {
	return userHasAtLeast(u, RoleAdmin)
}

// CanAccessGym reports whether the user may touch records belonging to the
// given gym. Sysadmins cross gym boundaries in administrative mode; everyone
// else is confined to their own gym.
func CanAccessGym(u *model.User, gymID uint) bool {
	if u == nil || !u.Active {
		return false
	}
	if Role(u.Role) == RoleSysadmin {
		return true
	}
	return u.GymID != nil && *u.GymID == gymID
}
