// ============================================================================
// internal/gateway/handlers/dto.go
// Request payloads and their validation
// ============================================================================

package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"classflow/internal/shared"
)

var validate = validator.New()

// RESTLoginRequest mirrors the expected JSON input for /auth/login
type RESTLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RESTChangePasswordRequest mirrors the expected JSON input for /auth/change-password
type RESTChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// RESTClassRequest is the create/update payload for a class. StartDate is a
// calendar date in YYYY-MM-DD.
type RESTClassRequest struct {
	Code          string `json:"code" validate:"required"`
	Name          string `json:"name" validate:"required"`
	TeacherID     string `json:"teacherId"`
	CMID          string `json:"cmId"`
	StartDate     string `json:"startDate" validate:"required"`
	WeekDay       int    `json:"weekDay"`
	TimeSlot      string `json:"timeSlot"`
	TotalSessions int    `json:"totalSessions" validate:"omitempty,min=1"`
	Color         string `json:"color"`
}

// ToRecord converts the payload to a ClassRecord.
func (r *RESTClassRequest) ToRecord() (shared.ClassRecord, error) {
	startDate, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return shared.ClassRecord{}, shared.NewValidationError("startDate", fmt.Sprintf("not a valid date: %q", r.StartDate))
	}
	return shared.ClassRecord{
		Code:          r.Code,
		Name:          r.Name,
		TeacherID:     r.TeacherID,
		CMID:          r.CMID,
		StartDate:     startDate,
		WeekDay:       r.WeekDay,
		TimeSlot:      r.TimeSlot,
		TotalSessions: r.TotalSessions,
		Color:         r.Color,
	}, nil
}

// RESTStudentRequest is the create/update payload for a student.
type RESTStudentRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	ClassID string `json:"classId"`
}

func (r *RESTStudentRequest) ToRecord() shared.StudentRecord {
	return shared.StudentRecord{
		Code:    r.Code,
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		ClassID: r.ClassID,
	}
}

// RESTTeacherRequest is the create/update payload for a teacher.
type RESTTeacherRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Active  *bool  `json:"active"`
}

func (r *RESTTeacherRequest) ToRecord() shared.TeacherRecord {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return shared.TeacherRecord{
		Code:    r.Code,
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Subject: r.Subject,
		Active:  active,
	}
}

// RESTCMRequest is the create/update payload for a class manager.
type RESTCMRequest struct {
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active"`
}

func (r *RESTCMRequest) ToRecord() shared.CMRecord {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return shared.CMRecord{
		Code:   r.Code,
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Active: active,
	}
}

// RESTAttendanceSaveRequest is the full-roster save payload for one session.
type RESTAttendanceSaveRequest struct {
	ClassID string                    `json:"classId" validate:"required"`
	Session int                       `json:"session" validate:"required,min=1"`
	Records []shared.AttendanceRecord `json:"records"`
}

// RESTCommentsSaveRequest replaces a class's per-student comments.
type RESTCommentsSaveRequest struct {
	ClassID  string            `json:"classId" validate:"required"`
	Comments map[string]string `json:"comments"`
}

// RESTSessionsSaveRequest replaces a class's stored schedule.
type RESTSessionsSaveRequest struct {
	Sessions []shared.SessionDescriptor `json:"sessions" validate:"required,min=1"`
}

// validationMessage flattens a validator error into one user-facing line.
func validationMessage(err error) string {
	if fieldErrors, ok := err.(validator.ValidationErrors); ok && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return fmt.Sprintf("field %s failed validation (%s)", fe.Field(), fe.Tag())
	}
	return err.Error()
}
