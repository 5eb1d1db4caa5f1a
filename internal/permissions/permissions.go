// ============================================================================
// internal/permissions/permissions.go
// Role -> resource -> operation permission matrix
// ============================================================================

// Package permissions is the single authority consulted before every
// mutating or view action. The matrix is total: every (role, resource,
// operation) triple resolves to a boolean, and anything unspecified —
// including unknown roles and resources — resolves to deny.
//
// The matrix deliberately gives CMs full administrative rights over classes
// and students while restricting them to read-only attendance and comments:
// class managers run logistics, teachers own the academic record. Do not
// "fix" this asymmetry.
package permissions

import (
	"classflow/internal/shared"
)

// Resource names a permission-gated entity collection.
type Resource string

const (
	ResourceClasses    Resource = "classes"
	ResourceStudents   Resource = "students"
	ResourceTeachers   Resource = "teachers"
	ResourceCMs        Resource = "cms"
	ResourceAttendance Resource = "attendance"
	ResourceComments   Resource = "comments"
)

// Operation names an action on a resource.
type Operation string

const (
	OpView   Operation = "view"
	OpCreate Operation = "create"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
)

type opSet map[Operation]bool

func ops(operations ...Operation) opSet {
	s := make(opSet, len(operations))
	for _, op := range operations {
		s[op] = true
	}
	return s
}

// matrix is the fixed policy table. Absent entries deny.
var matrix = map[shared.Role]map[Resource]opSet{
	shared.RoleAdmin: {
		ResourceClasses:    ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceStudents:   ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceTeachers:   ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceCMs:        ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceAttendance: ops(OpView, OpEdit),
		ResourceComments:   ops(OpView, OpEdit),
	},
	shared.RoleTeacher: {
		ResourceClasses:    ops(OpView),
		ResourceStudents:   ops(OpView),
		ResourceAttendance: ops(OpView, OpEdit),
		ResourceComments:   ops(OpView, OpEdit),
	},
	shared.RoleCM: {
		ResourceClasses:    ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceStudents:   ops(OpView, OpCreate, OpEdit, OpDelete),
		ResourceTeachers:   ops(OpView),
		ResourceCMs:        ops(OpView),
		ResourceAttendance: ops(OpView),
		ResourceComments:   ops(OpView),
	},
}

// exportRoles gates the export affordance, which has no operation dimension.
var exportRoles = map[shared.Role]bool{
	shared.RoleAdmin:   true,
	shared.RoleTeacher: true,
	shared.RoleCM:      true,
}

// Check reports whether role may perform op on resource. Unknown roles,
// resources, or operations deny; Check never panics or errors.
//
// Check answers the table question only. Row-level scoping — a teacher or
// CM seeing only their own classes — is applied at the data-loading layer
// after this boolean gate.
func Check(role shared.Role, resource Resource, op Operation) bool {
	resources, ok := matrix[role]
	if !ok {
		return false
	}
	operations, ok := resources[resource]
	if !ok {
		return false
	}
	return operations[op]
}

// CanExport reports whether role may export data.
func CanExport(role shared.Role) bool {
	return exportRoles[role]
}
