// ============================================================================
// internal/store/memory.go
// In-memory DataAccess backend (demo mode and tests)
// ============================================================================

package store

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"classflow/internal/shared"
)

// Memory is a process-local DataAccess backend. It replaces the browser
// localStorage demo mode of the legacy app and backs the test suites.
// Records live in insertion order so list calls are deterministic.
type Memory struct {
	mu sync.Mutex

	classes      []shared.ClassRecord
	students     []shared.StudentRecord
	teachers     []shared.TeacherRecord
	cms          []shared.CMRecord
	sessions     map[string][]shared.SessionDescriptor
	attendance   map[attendanceKey][]shared.AttendanceRecord
	comments     map[string]map[string]string
	users        []shared.User
	authSessions map[string]shared.AuthSession
	audits       []shared.AuditLog
}

type attendanceKey struct {
	classID string
	session int
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		sessions:     make(map[string][]shared.SessionDescriptor),
		attendance:   make(map[attendanceKey][]shared.AttendanceRecord),
		comments:     make(map[string]map[string]string),
		authSessions: make(map[string]shared.AuthSession),
	}
}

var _ DataAccess = (*Memory)(nil)

// ============================================================================
// Classes
// ============================================================================

func (m *Memory) GetClasses(ctx context.Context) ([]shared.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shared.ClassRecord, len(m.classes))
	copy(out, m.classes)
	return out, nil
}

func (m *Memory) GetClass(ctx context.Context, id string) (*shared.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.classes {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateClass(ctx context.Context, c shared.ClassRecord) (*shared.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = shared.GenerateClassID()
	}
	if c.TotalSessions < 1 {
		c.TotalSessions = shared.DefaultTotalSessions
	}
	if c.Color == "" {
		c.Color = shared.CardColors[rand.IntN(len(shared.CardColors))]
	}
	c.TeacherName = m.teacherNameLocked(c.TeacherID)
	c.CMName = m.cmNameLocked(c.CMID)
	c.CreatedAt = time.Now()

	m.classes = append(m.classes, c)
	copied := c
	return &copied, nil
}

func (m *Memory) UpdateClass(ctx context.Context, id string, c shared.ClassRecord) (*shared.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.classes {
		if existing.ID != id {
			continue
		}

		c.ID = id
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = time.Now()
		if c.TotalSessions < 1 {
			c.TotalSessions = shared.DefaultTotalSessions
		}
		if c.Color == "" {
			c.Color = existing.Color
		}
		c.TeacherName = m.teacherNameLocked(c.TeacherID)
		c.CMName = m.cmNameLocked(c.CMID)

		// A changed start date or weekday invalidates the stored schedule;
		// the next load regenerates it from the new parameters.
		if !sameDay(existing.StartDate, c.StartDate) || existing.WeekDay != c.WeekDay {
			delete(m.sessions, id)
		}

		if existing.Code != c.Code {
			for j := range m.students {
				if m.students[j].ClassID == id {
					m.students[j].ClassName = c.Code
				}
			}
		}

		m.classes[i] = c
		copied := c
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) DeleteClass(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, c := range m.classes {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.ErrNotFound
	}
	m.classes = append(m.classes[:idx], m.classes[idx+1:]...)

	delete(m.sessions, id)
	delete(m.comments, id)
	for key := range m.attendance {
		if key.classID == id {
			delete(m.attendance, key)
		}
	}
	for i := range m.students {
		if m.students[i].ClassID == id {
			m.students[i].ClassID = ""
			m.students[i].ClassName = ""
		}
	}
	return nil
}

// ============================================================================
// Sessions
// ============================================================================

func (m *Memory) GetSessions(ctx context.Context, classID string) ([]shared.SessionDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.sessions[classID]
	out := make([]shared.SessionDescriptor, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *Memory) SaveSessions(ctx context.Context, classID string, sessions []shared.SessionDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]shared.SessionDescriptor, len(sessions))
	copy(stored, sessions)
	m.sessions[classID] = stored
	return nil
}

// ============================================================================
// Students
// ============================================================================

func (m *Memory) GetStudents(ctx context.Context, classID string) ([]shared.StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shared.StudentRecord, 0, len(m.students))
	for _, s := range m.students {
		if classID == "" || s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) GetStudent(ctx context.Context, id string) (*shared.StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.students {
		if s.ID == id {
			copied := s
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateStudent(ctx context.Context, s shared.StudentRecord) (*shared.StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = shared.GenerateStudentID()
	}
	s.ClassName = m.classCodeLocked(s.ClassID)

	m.students = append(m.students, s)
	copied := s
	return &copied, nil
}

func (m *Memory) UpdateStudent(ctx context.Context, id string, s shared.StudentRecord) (*shared.StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.students {
		if existing.ID != id {
			continue
		}
		s.ID = id
		s.ClassName = m.classCodeLocked(s.ClassID)
		m.students[i] = s
		copied := s
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) DeleteStudent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.students {
		if s.ID == id {
			m.students = append(m.students[:i], m.students[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

// ============================================================================
// Teachers
// ============================================================================

func (m *Memory) GetTeachers(ctx context.Context) ([]shared.TeacherRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shared.TeacherRecord, len(m.teachers))
	copy(out, m.teachers)
	return out, nil
}

func (m *Memory) GetTeacher(ctx context.Context, id string) (*shared.TeacherRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.teachers {
		if t.ID == id {
			copied := t
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateTeacher(ctx context.Context, t shared.TeacherRecord) (*shared.TeacherRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = shared.GenerateTeacherID()
	}
	m.teachers = append(m.teachers, t)
	copied := t
	return &copied, nil
}

func (m *Memory) UpdateTeacher(ctx context.Context, id string, t shared.TeacherRecord) (*shared.TeacherRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.teachers {
		if existing.ID != id {
			continue
		}
		t.ID = id
		m.teachers[i] = t
		if existing.Name != t.Name {
			for j := range m.classes {
				if m.classes[j].TeacherID == id {
					m.classes[j].TeacherName = t.Name
				}
			}
		}
		copied := t
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) DeleteTeacher(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.teachers {
		if t.ID == id {
			m.teachers = append(m.teachers[:i], m.teachers[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

// ============================================================================
// Class Managers
// ============================================================================

func (m *Memory) GetCMs(ctx context.Context) ([]shared.CMRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shared.CMRecord, len(m.cms))
	copy(out, m.cms)
	return out, nil
}

func (m *Memory) GetCM(ctx context.Context, id string) (*shared.CMRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cms {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateCM(ctx context.Context, c shared.CMRecord) (*shared.CMRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = shared.GenerateCMID()
	}
	m.cms = append(m.cms, c)
	copied := c
	return &copied, nil
}

func (m *Memory) UpdateCM(ctx context.Context, id string, c shared.CMRecord) (*shared.CMRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.cms {
		if existing.ID != id {
			continue
		}
		c.ID = id
		m.cms[i] = c
		if existing.Name != c.Name {
			for j := range m.classes {
				if m.classes[j].CMID == id {
					m.classes[j].CMName = c.Name
				}
			}
		}
		copied := c
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) DeleteCM(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.cms {
		if c.ID == id {
			m.cms = append(m.cms[:i], m.cms[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

// ============================================================================
// Attendance
// ============================================================================

func (m *Memory) GetAttendance(ctx context.Context, classID string, session int) ([]shared.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.attendance[attendanceKey{classID, session}]
	out := make([]shared.AttendanceRecord, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *Memory) SaveAttendance(ctx context.Context, classID string, session int, records []shared.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]shared.AttendanceRecord, len(records))
	copy(stored, records)
	m.attendance[attendanceKey{classID, session}] = stored
	return nil
}

// ============================================================================
// Comments
// ============================================================================

func (m *Memory) GetComments(ctx context.Context, classID string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.comments[classID]))
	for k, v := range m.comments[classID] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SaveComments(ctx context.Context, classID string, comments map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(map[string]string, len(comments))
	for k, v := range comments {
		stored[k] = v
	}
	m.comments[classID] = stored
	return nil
}

// ============================================================================
// Users / Auth Sessions / Audit
// ============================================================================

func (m *Memory) GetUser(ctx context.Context, id string) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copied := u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateUser(ctx context.Context, u shared.User) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = shared.GenerateID("USR")
	}
	u.CreatedAt = time.Now()
	m.users = append(m.users, u)
	copied := u
	return &copied, nil
}

func (m *Memory) UpdateUser(ctx context.Context, id string, u shared.User) (*shared.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.users {
		if existing.ID != id {
			continue
		}
		u.ID = id
		u.CreatedAt = existing.CreatedAt
		m.users[i] = u
		copied := u
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *Memory) CreateAuthSession(ctx context.Context, s shared.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.authSessions[s.Token] = s
	return nil
}

func (m *Memory) GetAuthSessionByToken(ctx context.Context, token string) (*shared.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.authSessions[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := s
	return &copied, nil
}

func (m *Memory) DeleteAuthSessionByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.authSessions, token)
	return nil
}

func (m *Memory) AppendAudit(ctx context.Context, entry shared.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = shared.GenerateAuditLogID()
	}
	m.audits = append(m.audits, entry)
	return nil
}

// AuditEntries returns a snapshot of the audit trail (used by tests).
func (m *Memory) AuditEntries() []shared.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]shared.AuditLog, len(m.audits))
	copy(out, m.audits)
	return out
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (m *Memory) teacherNameLocked(id string) string {
	if id == "" {
		return ""
	}
	for _, t := range m.teachers {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func (m *Memory) cmNameLocked(id string) string {
	if id == "" {
		return ""
	}
	for _, c := range m.cms {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (m *Memory) classCodeLocked(id string) string {
	if id == "" {
		return ""
	}
	for _, c := range m.classes {
		if c.ID == id {
			return c.Code
		}
	}
	return ""
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
