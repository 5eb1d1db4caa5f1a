// ============================================================================
// internal/shared/models.go
// Canonical data models shared by the core engine, stores, and gateway
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// Attendance Status
// ============================================================================

// AttendanceStatus is the per-student mark for one class session.
type AttendanceStatus string

const (
	StatusOnTime  AttendanceStatus = "on-time"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
	StatusAbsent  AttendanceStatus = "absent"
)

// DefaultStatus is applied to roster rows submitted without an explicit
// status. The dashboards built against the legacy backends count unmarked
// students as present, so the default is applied deliberately, in exactly
// one place (classdetail.fillDefaults).
const DefaultStatus = StatusOnTime

// IsValidStatus reports whether s is one of the four attendance marks.
func IsValidStatus(s AttendanceStatus) bool {
	switch s {
	case StatusOnTime, StatusLate, StatusExcused, StatusAbsent:
		return true
	}
	return false
}

// ============================================================================
// Session Status
// ============================================================================

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
)

// DefaultTotalSessions is the session count for a class created without one.
const DefaultTotalSessions = 15

// CardColors is the palette for class card tags. A class created without a
// color gets one assigned from this list.
var CardColors = []string{"green", "blue", "orange", "red"}

// ============================================================================
// Class Models
// ============================================================================

// ClassRecord describes one class. TeacherName and CMName are denormalized
// display caches maintained by the store on create/update, matching what the
// legacy backends persisted.
type ClassRecord struct {
	ID            string    `bson:"_id" json:"id"`
	Code          string    `bson:"code" json:"code"`
	Name          string    `bson:"name" json:"name"`
	TeacherID     string    `bson:"teacher_id,omitempty" json:"teacherId,omitempty"`
	TeacherName   string    `bson:"teacher_name,omitempty" json:"teacher,omitempty"`
	CMID          string    `bson:"cm_id,omitempty" json:"cmId,omitempty"`
	CMName        string    `bson:"cm_name,omitempty" json:"cm,omitempty"`
	StartDate     time.Time `bson:"start_date" json:"startDate"`
	WeekDay       int       `bson:"week_day" json:"weekDay"` // 0-6, Sunday=0; out of range = no constraint
	TimeSlot      string    `bson:"time_slot,omitempty" json:"timeSlot,omitempty"`
	TotalSessions int       `bson:"total_sessions" json:"totalSessions"`
	Color         string    `bson:"color,omitempty" json:"color,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// SessionDescriptor is one scheduled meeting of a class. Number orders the
// sessions (1..TotalSessions); Date is derived from the class start date and
// weekday unless the backend stored an explicit schedule.
type SessionDescriptor struct {
	Number int       `bson:"number" json:"number"`
	Date   time.Time `bson:"date" json:"date"`
	Status string    `bson:"status" json:"status"` // scheduled | completed, advisory only
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
}

// AttendanceRecord is one student's mark for one session. Records are keyed
// by (classId, sessionNumber, studentId); a save replaces the full roster
// for that session.
type AttendanceRecord struct {
	StudentID string           `bson:"student_id" json:"studentId"`
	Status    AttendanceStatus `bson:"status" json:"status"`
	Note      string           `bson:"note,omitempty" json:"note,omitempty"`
}

// ============================================================================
// People Models
// ============================================================================

// StudentRecord describes one student. ClassID is empty when unassigned;
// ClassName is the denormalized class code for display.
type StudentRecord struct {
	ID        string `bson:"_id" json:"id"`
	Code      string `bson:"code" json:"code"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	ClassID   string `bson:"class_id,omitempty" json:"classId,omitempty"`
	ClassName string `bson:"class_name,omitempty" json:"className,omitempty"`
}

// TeacherRecord describes one teacher.
type TeacherRecord struct {
	ID      string `bson:"_id" json:"id"`
	Code    string `bson:"code" json:"code"`
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject string `bson:"subject,omitempty" json:"subject,omitempty"`
	Active  bool   `bson:"active" json:"active"`
}

// CMRecord describes one class manager.
type CMRecord struct {
	ID     string `bson:"_id" json:"id"`
	Code   string `bson:"code" json:"code"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`
	Phone  string `bson:"phone,omitempty" json:"phone,omitempty"`
	Active bool   `bson:"active" json:"active"`
}

// ============================================================================
// User / Auth Models
// ============================================================================

// User is an account that can sign in. Teacher and CM users carry the
// foreign key scoping which classes they may act on.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         Role      `bson:"role" json:"role"`
	Name         string    `bson:"name" json:"name"`
	Avatar       string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	TeacherID    string    `bson:"teacher_id,omitempty" json:"teacherId,omitempty"`
	CMID         string    `bson:"cm_id,omitempty" json:"cmId,omitempty"`
	IsActive     bool      `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

// AuthSession is a server-side login session record (enables revocation).
type AuthSession struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// AuditLog records one mutating action taken through the gateway.
type AuditLog struct {
	ID        string            `bson:"_id" json:"id"`
	Timestamp time.Time         `bson:"timestamp" json:"timestamp"`
	UserID    string            `bson:"user_id" json:"userId"`
	Action    string            `bson:"action" json:"action"`
	Resource  string            `bson:"resource" json:"resource"`
	Details   map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}
