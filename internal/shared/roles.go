// ============================================================================
// internal/shared/roles.go
// Canonical role representation and boundary conversion
// ============================================================================

package shared

// Role is the canonical role tag used everywhere inside the core. The legacy
// backends represented roles inconsistently (string enum in some revisions,
// numeric 0/1/2 in others); ParseRole converts once at the boundary so the
// core never branches on representation.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleCM      Role = "cm"
)

// ParseRole maps either the string form ("admin", "teacher", "cm") or the
// legacy numeric form ("0", "1", "2") to a Role. The second return value is
// false for anything unrecognized.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "admin", "0":
		return RoleAdmin, true
	case "teacher", "1":
		return RoleTeacher, true
	case "cm", "2":
		return RoleCM, true
	}
	return "", false
}

// String returns the canonical string form.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleCM:
		return true
	}
	return false
}
