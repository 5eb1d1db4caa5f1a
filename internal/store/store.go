// ============================================================================
// internal/store/store.go
// DataAccess: the single backend contract the core engine consumes
// ============================================================================

// Package store defines the DataAccess contract and its two backends: a
// MongoDB implementation for production and an in-memory implementation for
// demo mode and tests. The legacy backends exposed several competing shapes
// (REST, action-dispatch, browser-local demo); everything is normalized to
// this one contract, including field casing, so the core never branches on
// backend differences.
package store

import (
	"context"

	"classflow/internal/shared"
)

// DataAccess is the backend contract. All calls are fallible; callers treat
// read failures as "no data" (degrade gracefully) and write failures as hard
// errors requiring user notification. Lookups for missing ids return
// shared.ErrNotFound.
type DataAccess interface {
	// Classes
	GetClasses(ctx context.Context) ([]shared.ClassRecord, error)
	GetClass(ctx context.Context, id string) (*shared.ClassRecord, error)
	CreateClass(ctx context.Context, c shared.ClassRecord) (*shared.ClassRecord, error)
	UpdateClass(ctx context.Context, id string, c shared.ClassRecord) (*shared.ClassRecord, error)
	// DeleteClass removes the class along with its sessions, attendance,
	// and comments; enrolled students become unassigned.
	DeleteClass(ctx context.Context, id string) error

	// Sessions. GetSessions may return an empty list; callers fall back to
	// schedule.Generate. Saving replaces the stored schedule wholesale.
	GetSessions(ctx context.Context, classID string) ([]shared.SessionDescriptor, error)
	SaveSessions(ctx context.Context, classID string, sessions []shared.SessionDescriptor) error

	// Students. classID narrows to one class; empty means all students.
	GetStudents(ctx context.Context, classID string) ([]shared.StudentRecord, error)
	GetStudent(ctx context.Context, id string) (*shared.StudentRecord, error)
	CreateStudent(ctx context.Context, s shared.StudentRecord) (*shared.StudentRecord, error)
	UpdateStudent(ctx context.Context, id string, s shared.StudentRecord) (*shared.StudentRecord, error)
	DeleteStudent(ctx context.Context, id string) error

	// Teachers
	GetTeachers(ctx context.Context) ([]shared.TeacherRecord, error)
	GetTeacher(ctx context.Context, id string) (*shared.TeacherRecord, error)
	CreateTeacher(ctx context.Context, t shared.TeacherRecord) (*shared.TeacherRecord, error)
	UpdateTeacher(ctx context.Context, id string, t shared.TeacherRecord) (*shared.TeacherRecord, error)
	DeleteTeacher(ctx context.Context, id string) error

	// Class Managers
	GetCMs(ctx context.Context) ([]shared.CMRecord, error)
	GetCM(ctx context.Context, id string) (*shared.CMRecord, error)
	CreateCM(ctx context.Context, c shared.CMRecord) (*shared.CMRecord, error)
	UpdateCM(ctx context.Context, id string, c shared.CMRecord) (*shared.CMRecord, error)
	DeleteCM(ctx context.Context, id string) error

	// Attendance, keyed by (classID, session). Save replaces the full
	// roster for the session; last write wins.
	GetAttendance(ctx context.Context, classID string, session int) ([]shared.AttendanceRecord, error)
	SaveAttendance(ctx context.Context, classID string, session int, records []shared.AttendanceRecord) error

	// Comments, one free-text note per student per class.
	GetComments(ctx context.Context, classID string) (map[string]string, error)
	SaveComments(ctx context.Context, classID string, comments map[string]string) error

	// Users and login sessions
	GetUser(ctx context.Context, id string) (*shared.User, error)
	GetUserByEmail(ctx context.Context, email string) (*shared.User, error)
	CreateUser(ctx context.Context, u shared.User) (*shared.User, error)
	UpdateUser(ctx context.Context, id string, u shared.User) (*shared.User, error)
	CreateAuthSession(ctx context.Context, s shared.AuthSession) error
	GetAuthSessionByToken(ctx context.Context, token string) (*shared.AuthSession, error)
	DeleteAuthSessionByToken(ctx context.Context, token string) error

	// Audit trail for mutating gateway actions.
	AppendAudit(ctx context.Context, entry shared.AuditLog) error
}
