// ============================================================================
// internal/classdetail/scope.go
// Row-level scoping for teacher and CM users
// ============================================================================

package classdetail

import (
	"classflow/internal/shared"
)

// ScopeClasses narrows classes to the ones user may act on. Admins see
// everything; teachers and CMs see only classes bound to their own
// teacherId/cmId. This runs after the boolean permission gate, not instead
// of it.
func ScopeClasses(user *shared.User, classes []shared.ClassRecord) []shared.ClassRecord {
	if user == nil {
		return []shared.ClassRecord{}
	}
	switch user.Role {
	case shared.RoleAdmin:
		return classes
	case shared.RoleTeacher:
		out := make([]shared.ClassRecord, 0, len(classes))
		for _, c := range classes {
			if user.TeacherID != "" && c.TeacherID == user.TeacherID {
				out = append(out, c)
			}
		}
		return out
	case shared.RoleCM:
		out := make([]shared.ClassRecord, 0, len(classes))
		for _, c := range classes {
			if user.CMID != "" && c.CMID == user.CMID {
				out = append(out, c)
			}
		}
		return out
	}
	return []shared.ClassRecord{}
}

// ScopeStudents narrows students to those enrolled in one of the user's
// scoped classes. Unassigned students are visible to admins only.
func ScopeStudents(user *shared.User, scopedClasses []shared.ClassRecord, students []shared.StudentRecord) []shared.StudentRecord {
	if user == nil {
		return []shared.StudentRecord{}
	}
	if user.Role == shared.RoleAdmin {
		return students
	}

	allowed := make(map[string]bool, len(scopedClasses))
	for _, c := range scopedClasses {
		allowed[c.ID] = true
	}

	out := make([]shared.StudentRecord, 0, len(students))
	for _, s := range students {
		if allowed[s.ClassID] {
			out = append(out, s)
		}
	}
	return out
}

// CanAccessClass reports whether user may open class. Same rule as
// ScopeClasses, for a single record.
func CanAccessClass(user *shared.User, class *shared.ClassRecord) bool {
	if user == nil || class == nil {
		return false
	}
	switch user.Role {
	case shared.RoleAdmin:
		return true
	case shared.RoleTeacher:
		return user.TeacherID != "" && class.TeacherID == user.TeacherID
	case shared.RoleCM:
		return user.CMID != "" && class.CMID == user.CMID
	}
	return false
}
