// ============================================================================
// internal/store/mongo.go
// MongoDB DataAccess backend
// ============================================================================

package store

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classflow/internal/shared"
)

const (
	queryTimeout = 5 * time.Second
	listTimeout  = 10 * time.Second
)

// Mongo is the production DataAccess backend.
type Mongo struct {
	db            *mongo.Database
	classesCol    *mongo.Collection
	sessionsCol   *mongo.Collection
	studentsCol   *mongo.Collection
	teachersCol   *mongo.Collection
	cmsCol        *mongo.Collection
	attendanceCol *mongo.Collection
	commentsCol   *mongo.Collection
	usersCol      *mongo.Collection
	authCol       *mongo.Collection
	auditCol      *mongo.Collection
}

// NewMongo creates a Mongo store over db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		db:            db,
		classesCol:    db.Collection("classes"),
		sessionsCol:   db.Collection("class_sessions"),
		studentsCol:   db.Collection("students"),
		teachersCol:   db.Collection("teachers"),
		cmsCol:        db.Collection("cms"),
		attendanceCol: db.Collection("attendance"),
		commentsCol:   db.Collection("comments"),
		usersCol:      db.Collection("users"),
		authCol:       db.Collection("auth_sessions"),
		auditCol:      db.Collection("audit_logs"),
	}
}

var _ DataAccess = (*Mongo)(nil)

func translateErr(err error) error {
	if err == mongo.ErrNoDocuments {
		return shared.ErrNotFound
	}
	return err
}

// ============================================================================
// Classes
// ============================================================================

func (m *Mongo) GetClasses(ctx context.Context) ([]shared.ClassRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := m.classesCol.Find(queryCtx, bson.M{}, shared.BuildFindOptions(0, "code", 1))
	if err != nil {
		log.Printf("Error querying classes: %v", err)
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var classes []shared.ClassRecord
	if err := cursor.All(queryCtx, &classes); err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []shared.ClassRecord{}
	}
	return classes, nil
}

func (m *Mongo) GetClass(ctx context.Context, id string) (*shared.ClassRecord, error) {
	var class shared.ClassRecord
	if err := shared.FindOneWithTimeout(ctx, m.classesCol, bson.M{"_id": id}, &class, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &class, nil
}

func (m *Mongo) CreateClass(ctx context.Context, c shared.ClassRecord) (*shared.ClassRecord, error) {
	if c.ID == "" {
		c.ID = shared.GenerateClassID()
	}
	if c.TotalSessions < 1 {
		c.TotalSessions = shared.DefaultTotalSessions
	}
	if c.Color == "" {
		c.Color = shared.CardColors[rand.IntN(len(shared.CardColors))]
	}
	c.TeacherName = m.teacherName(ctx, c.TeacherID)
	c.CMName = m.cmName(ctx, c.CMID)
	c.CreatedAt = time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.classesCol.InsertOne(queryCtx, c); err != nil {
		return nil, fmt.Errorf("failed to insert class: %w", err)
	}
	return &c, nil
}

func (m *Mongo) UpdateClass(ctx context.Context, id string, c shared.ClassRecord) (*shared.ClassRecord, error) {
	existing, err := m.GetClass(ctx, id)
	if err != nil {
		return nil, err
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
	c.TeacherName = m.teacherName(ctx, c.TeacherID)
	c.CMName = m.cmName(ctx, c.CMID)

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.classesCol.ReplaceOne(queryCtx, bson.M{"_id": id}, c); err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}

	// A changed start date or weekday invalidates the stored schedule; the
	// next load regenerates it from the new parameters.
	if !sameDay(existing.StartDate, c.StartDate) || existing.WeekDay != c.WeekDay {
		if _, err := m.sessionsCol.DeleteOne(queryCtx, bson.M{"_id": id}); err != nil {
			log.Printf("Warning: failed to invalidate schedule for class %s: %v", id, err)
		}
	}

	if existing.Code != c.Code {
		_, err := m.studentsCol.UpdateMany(queryCtx,
			bson.M{"class_id": id},
			bson.M{"$set": bson.M{"class_name": c.Code}})
		if err != nil {
			log.Printf("Warning: failed to refresh class name on students of %s: %v", id, err)
		}
	}

	return &c, nil
}

func (m *Mongo) DeleteClass(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	res, err := m.classesCol.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}

	// Cascade: schedule, attendance, comments go with the class; enrolled
	// students become unassigned.
	if _, err := m.sessionsCol.DeleteOne(queryCtx, bson.M{"_id": id}); err != nil {
		log.Printf("Warning: failed to delete sessions of class %s: %v", id, err)
	}
	if _, err := m.attendanceCol.DeleteMany(queryCtx, bson.M{"class_id": id}); err != nil {
		log.Printf("Warning: failed to delete attendance of class %s: %v", id, err)
	}
	if _, err := m.commentsCol.DeleteOne(queryCtx, bson.M{"_id": id}); err != nil {
		log.Printf("Warning: failed to delete comments of class %s: %v", id, err)
	}
	_, err = m.studentsCol.UpdateMany(queryCtx,
		bson.M{"class_id": id},
		bson.M{"$set": bson.M{"class_id": "", "class_name": ""}})
	if err != nil {
		log.Printf("Warning: failed to unassign students of class %s: %v", id, err)
	}
	return nil
}

// ============================================================================
// Sessions
// ============================================================================

type sessionsDoc struct {
	ID       string                     `bson:"_id"`
	Sessions []shared.SessionDescriptor `bson:"sessions"`
}

func (m *Mongo) GetSessions(ctx context.Context, classID string) ([]shared.SessionDescriptor, error) {
	var doc sessionsDoc
	err := shared.FindOneWithTimeout(ctx, m.sessionsCol, bson.M{"_id": classID}, &doc, queryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return []shared.SessionDescriptor{}, nil
		}
		return nil, err
	}
	return doc.Sessions, nil
}

func (m *Mongo) SaveSessions(ctx context.Context, classID string, sessions []shared.SessionDescriptor) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := sessionsDoc{ID: classID, Sessions: sessions}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.sessionsCol.ReplaceOne(queryCtx, bson.M{"_id": classID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

// ============================================================================
// Students
// ============================================================================

func (m *Mongo) GetStudents(ctx context.Context, classID string) ([]shared.StudentRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{}
	if classID != "" {
		filter["class_id"] = classID
	}

	cursor, err := m.studentsCol.Find(queryCtx, filter, shared.BuildFindOptions(0, "code", 1))
	if err != nil {
		log.Printf("Error querying students: %v", err)
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var students []shared.StudentRecord
	if err := cursor.All(queryCtx, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []shared.StudentRecord{}
	}
	return students, nil
}

func (m *Mongo) GetStudent(ctx context.Context, id string) (*shared.StudentRecord, error) {
	var student shared.StudentRecord
	if err := shared.FindOneWithTimeout(ctx, m.studentsCol, bson.M{"_id": id}, &student, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &student, nil
}

func (m *Mongo) CreateStudent(ctx context.Context, s shared.StudentRecord) (*shared.StudentRecord, error) {
	if s.ID == "" {
		s.ID = shared.GenerateStudentID()
	}
	s.ClassName = m.classCode(ctx, s.ClassID)

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.studentsCol.InsertOne(queryCtx, s); err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}
	return &s, nil
}

func (m *Mongo) UpdateStudent(ctx context.Context, id string, s shared.StudentRecord) (*shared.StudentRecord, error) {
	s.ID = id
	s.ClassName = m.classCode(ctx, s.ClassID)

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.studentsCol.ReplaceOne(queryCtx, bson.M{"_id": id}, s)
	if err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (m *Mongo) DeleteStudent(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.studentsCol.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ============================================================================
// Teachers
// ============================================================================

func (m *Mongo) GetTeachers(ctx context.Context) ([]shared.TeacherRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := m.teachersCol.Find(queryCtx, bson.M{}, shared.BuildFindOptions(0, "code", 1))
	if err != nil {
		log.Printf("Error querying teachers: %v", err)
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var teachers []shared.TeacherRecord
	if err := cursor.All(queryCtx, &teachers); err != nil {
		return nil, err
	}
	if teachers == nil {
		teachers = []shared.TeacherRecord{}
	}
	return teachers, nil
}

func (m *Mongo) GetTeacher(ctx context.Context, id string) (*shared.TeacherRecord, error) {
	var teacher shared.TeacherRecord
	if err := shared.FindOneWithTimeout(ctx, m.teachersCol, bson.M{"_id": id}, &teacher, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &teacher, nil
}

func (m *Mongo) CreateTeacher(ctx context.Context, t shared.TeacherRecord) (*shared.TeacherRecord, error) {
	if t.ID == "" {
		t.ID = shared.GenerateTeacherID()
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.teachersCol.InsertOne(queryCtx, t); err != nil {
		return nil, fmt.Errorf("failed to insert teacher: %w", err)
	}
	return &t, nil
}

func (m *Mongo) UpdateTeacher(ctx context.Context, id string, t shared.TeacherRecord) (*shared.TeacherRecord, error) {
	t.ID = id

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.teachersCol.ReplaceOne(queryCtx, bson.M{"_id": id}, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update teacher: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, shared.ErrNotFound
	}

	_, err = m.classesCol.UpdateMany(queryCtx,
		bson.M{"teacher_id": id},
		bson.M{"$set": bson.M{"teacher_name": t.Name}})
	if err != nil {
		log.Printf("Warning: failed to refresh teacher name on classes: %v", err)
	}
	return &t, nil
}

func (m *Mongo) DeleteTeacher(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.teachersCol.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete teacher: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ============================================================================
// Class Managers
// ============================================================================

func (m *Mongo) GetCMs(ctx context.Context) ([]shared.CMRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := m.cmsCol.Find(queryCtx, bson.M{}, shared.BuildFindOptions(0, "code", 1))
	if err != nil {
		log.Printf("Error querying cms: %v", err)
		return nil, err
	}
	defer cursor.Close(queryCtx)

	var cms []shared.CMRecord
	if err := cursor.All(queryCtx, &cms); err != nil {
		return nil, err
	}
	if cms == nil {
		cms = []shared.CMRecord{}
	}
	return cms, nil
}

func (m *Mongo) GetCM(ctx context.Context, id string) (*shared.CMRecord, error) {
	var cm shared.CMRecord
	if err := shared.FindOneWithTimeout(ctx, m.cmsCol, bson.M{"_id": id}, &cm, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &cm, nil
}

func (m *Mongo) CreateCM(ctx context.Context, c shared.CMRecord) (*shared.CMRecord, error) {
	if c.ID == "" {
		c.ID = shared.GenerateCMID()
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.cmsCol.InsertOne(queryCtx, c); err != nil {
		return nil, fmt.Errorf("failed to insert cm: %w", err)
	}
	return &c, nil
}

func (m *Mongo) UpdateCM(ctx context.Context, id string, c shared.CMRecord) (*shared.CMRecord, error) {
	c.ID = id

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.cmsCol.ReplaceOne(queryCtx, bson.M{"_id": id}, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update cm: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, shared.ErrNotFound
	}

	_, err = m.classesCol.UpdateMany(queryCtx,
		bson.M{"cm_id": id},
		bson.M{"$set": bson.M{"cm_name": c.Name}})
	if err != nil {
		log.Printf("Warning: failed to refresh cm name on classes: %v", err)
	}
	return &c, nil
}

func (m *Mongo) DeleteCM(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.cmsCol.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete cm: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ============================================================================
// Attendance
// ============================================================================

type attendanceDoc struct {
	ID      string   `bson:"_id"`
	ClassID string   `bson:"class_id"`
	Session int      `bson:"session"`
	Records []bson.M `bson:"records"`
}

func attendanceDocID(classID string, session int) string {
	return fmt.Sprintf("%s:%d", classID, session)
}

func (m *Mongo) GetAttendance(ctx context.Context, classID string, session int) ([]shared.AttendanceRecord, error) {
	var doc attendanceDoc
	err := shared.FindOneWithTimeout(ctx, m.attendanceCol,
		bson.M{"_id": attendanceDocID(classID, session)}, &doc, queryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return []shared.AttendanceRecord{}, nil
		}
		return nil, err
	}

	records := make([]shared.AttendanceRecord, 0, len(doc.Records))
	for _, raw := range doc.Records {
		records = append(records, normalizeAttendance(raw))
	}
	return records, nil
}

func (m *Mongo) SaveAttendance(ctx context.Context, classID string, session int, records []shared.AttendanceRecord) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	raw := make([]bson.M, 0, len(records))
	for _, r := range records {
		raw = append(raw, bson.M{
			"student_id": r.StudentID,
			"status":     string(r.Status),
			"note":       r.Note,
		})
	}

	doc := attendanceDoc{
		ID:      attendanceDocID(classID, session),
		ClassID: classID,
		Session: session,
		Records: raw,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.attendanceCol.ReplaceOne(queryCtx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

// normalizeAttendance converts one stored record to the canonical shape.
// Documents written by the legacy backends drift on field casing
// (student_id / studentid / studentId); this is the only place that drift
// is allowed to exist.
func normalizeAttendance(raw bson.M) shared.AttendanceRecord {
	var record shared.AttendanceRecord

	for _, key := range []string{"student_id", "studentid", "studentId"} {
		if id, err := shared.GetString(raw[key]); err == nil && id != "" {
			record.StudentID = id
			break
		}
	}
	if status, err := shared.GetString(raw["status"]); err == nil {
		record.Status = shared.AttendanceStatus(status)
	}
	if note, err := shared.GetString(raw["note"]); err == nil {
		record.Note = note
	}
	return record
}

// ============================================================================
// Comments
// ============================================================================

type commentsDoc struct {
	ID       string            `bson:"_id"`
	Comments map[string]string `bson:"comments"`
}

func (m *Mongo) GetComments(ctx context.Context, classID string) (map[string]string, error) {
	var doc commentsDoc
	err := shared.FindOneWithTimeout(ctx, m.commentsCol, bson.M{"_id": classID}, &doc, queryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if doc.Comments == nil {
		doc.Comments = map[string]string{}
	}
	return doc.Comments, nil
}

func (m *Mongo) SaveComments(ctx context.Context, classID string, comments map[string]string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := commentsDoc{ID: classID, Comments: comments}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.commentsCol.ReplaceOne(queryCtx, bson.M{"_id": classID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save comments: %w", err)
	}
	return nil
}

// ============================================================================
// Users / Auth Sessions / Audit
// ============================================================================

func (m *Mongo) GetUser(ctx context.Context, id string) (*shared.User, error) {
	var user shared.User
	if err := shared.FindOneWithTimeout(ctx, m.usersCol, bson.M{"_id": id}, &user, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	var user shared.User
	if err := shared.FindOneWithTimeout(ctx, m.usersCol, bson.M{"email": email}, &user, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (m *Mongo) CreateUser(ctx context.Context, u shared.User) (*shared.User, error) {
	if u.ID == "" {
		u.ID = shared.GenerateID("USR")
	}
	u.CreatedAt = time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.usersCol.InsertOne(queryCtx, u); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &u, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, u shared.User) (*shared.User, error) {
	u.ID = id

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := m.usersCol.ReplaceOne(queryCtx, bson.M{"_id": id}, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *Mongo) CreateAuthSession(ctx context.Context, s shared.AuthSession) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.authCol.InsertOne(queryCtx, s); err != nil {
		return fmt.Errorf("failed to insert auth session: %w", err)
	}
	return nil
}

func (m *Mongo) GetAuthSessionByToken(ctx context.Context, token string) (*shared.AuthSession, error) {
	var session shared.AuthSession
	if err := shared.FindOneWithTimeout(ctx, m.authCol, bson.M{"token": token}, &session, queryTimeout); err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (m *Mongo) DeleteAuthSessionByToken(ctx context.Context, token string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.authCol.DeleteOne(queryCtx, bson.M{"token": token}); err != nil {
		return fmt.Errorf("failed to delete auth session: %w", err)
	}
	return nil
}

func (m *Mongo) AppendAudit(ctx context.Context, entry shared.AuditLog) error {
	if entry.ID == "" {
		entry.ID = shared.GenerateAuditLogID()
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := m.auditCol.InsertOne(queryCtx, entry); err != nil {
		log.Printf("Warning: failed to append audit entry: %v", err)
		return err
	}
	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (m *Mongo) teacherName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	teacher, err := m.GetTeacher(ctx, id)
	if err != nil {
		return ""
	}
	return teacher.Name
}

func (m *Mongo) cmName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	cm, err := m.GetCM(ctx, id)
	if err != nil {
		return ""
	}
	return cm.Name
}

func (m *Mongo) classCode(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	class, err := m.GetClass(ctx, id)
	if err != nil {
		return ""
	}
	return class.Code
}
