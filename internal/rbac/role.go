// Package rbac holds the role hierarchy and the permission predicates that
// gate every mutation in the system. It is pure: no database access, no
// framework types, safe to call on every request.
package rbac

// Role is a user's privilege tier.
type Role string

const (
	RoleAlumno   Role = "alumno"
	RoleProfesor Role = "profesor"
	RoleAdmin    Role = "admin"
	RoleSysadmin Role = "sysadmin"
)

// rank orders the roles lowest to highest. Unknown roles have no rank and
// never satisfy an at-least check.
var rank = map[Role]int{
	RoleAlumno:   0,
	RoleProfesor: 1,
	RoleAdmin:    2,
	RoleSysadmin: 3,
}

// Valid reports whether r is one of the four known roles.
func Valid(r Role) bool {
	_, ok := rank[r]
	return ok
}

// HasAtLeast reports whether r is ranked greater-or-equal to min.
// Sysadmin passes unconditionally, before any rank lookup: it has every
// permission by definition.
func HasAtLeast(r, min Role) bool {
	if r == RoleSysadmin {
		return true
	}
	rr, ok := rank[r]
	if !ok {
		return false
	}
	mr, ok := rank[min]
	if !ok {
		return false
	}
	return rr >= mr
}
