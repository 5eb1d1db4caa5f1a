// ============================================================================
// internal/classdetail/orchestrator.go
// Class detail view-state: open/close, session selection, attendance saves
// ============================================================================

// Package classdetail coordinates everything needed to view and edit one
// class: the class record, its roster, its session schedule, and the cached
// attendance per session. It composes the schedule generator, the attendance
// cache, and the aggregator; permission checks happen in the gateway before
// any call lands here.
package classdetail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"classflow/internal/attendance"
	"classflow/internal/schedule"
	"classflow/internal/shared"
	"classflow/internal/store"
)

// State is the lifecycle of a class detail view.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// maxConcurrentFetches bounds the fire-and-gather attendance loads during
// stats aggregation.
const maxConcurrentFetches = 8

// Orchestrator drives one class detail view at a time. Opening a different
// class clears all cached attendance from the previous one.
type Orchestrator struct {
	da    store.DataAccess
	cache *attendance.Store

	mu       sync.Mutex
	state    State
	classID  string
	class    *shared.ClassRecord
	students []shared.StudentRecord
	sessions []shared.SessionDescriptor
}

// New creates an Orchestrator in the Closed state.
func New(da store.DataAccess) *Orchestrator {
	return &Orchestrator{
		da:    da,
		cache: attendance.NewStore(),
	}
}

// Open loads classID into the view. The class record itself is required; a
// missing roster or schedule degrades (empty roster, generated schedule)
// rather than failing the open.
func (o *Orchestrator) Open(ctx context.Context, classID string) error {
	o.mu.Lock()
	o.state = StateLoading
	o.classID = classID
	o.class = nil
	o.students = nil
	o.sessions = nil
	o.mu.Unlock()
	o.cache.Clear()

	class, err := o.da.GetClass(ctx, classID)
	if err != nil {
		o.mu.Lock()
		o.state = StateClosed
		o.classID = ""
		o.mu.Unlock()
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("class %s: %w", classID, shared.ErrNotFound)
		}
		return fmt.Errorf("failed to load class %s: %w", classID, err)
	}

	students, err := o.da.GetStudents(ctx, classID)
	if err != nil {
		log.Printf("Warning: failed to load roster for class %s: %v", classID, err)
		students = []shared.StudentRecord{}
	}

	sessions := o.loadOrGenerateSessions(ctx, class)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.classID != classID {
		// The view moved on while we were loading.
		return shared.ErrStaleScope
	}
	o.class = class
	o.students = students
	o.sessions = sessions
	o.state = StateReady
	return nil
}

// loadOrGenerateSessions returns the stored schedule, or generates one from
// the class parameters when the backend has none. A generated schedule is
// written back best-effort so subsequent opens see the same dates.
func (o *Orchestrator) loadOrGenerateSessions(ctx context.Context, class *shared.ClassRecord) []shared.SessionDescriptor {
	stored, err := o.da.GetSessions(ctx, class.ID)
	if err != nil {
		log.Printf("Warning: failed to load sessions for class %s: %v", class.ID, err)
		stored = nil
	}
	if len(stored) > 0 {
		return stored
	}

	generated := schedule.Generate(class.StartDate, class.WeekDay, class.TotalSessions)
	if err := o.da.SaveSessions(ctx, class.ID, generated); err != nil {
		log.Printf("Warning: failed to persist generated schedule for class %s: %v", class.ID, err)
	}
	return generated
}

// Close discards the view and all cached attendance.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.state = StateClosed
	o.classID = ""
	o.class = nil
	o.students = nil
	o.sessions = nil
	o.mu.Unlock()
	o.cache.Clear()
}

// State returns the current view state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Class returns the open class record, or nil when closed.
func (o *Orchestrator) Class() *shared.ClassRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.class == nil {
		return nil
	}
	copied := *o.class
	return &copied
}

// Students returns the open class's roster.
func (o *Orchestrator) Students() []shared.StudentRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]shared.StudentRecord, len(o.students))
	copy(out, o.students)
	return out
}

// Sessions returns the open class's schedule.
func (o *Orchestrator) Sessions() []shared.SessionDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]shared.SessionDescriptor, len(o.sessions))
	copy(out, o.sessions)
	return out
}

// SelectSession returns the attendance records for one session of the open
// class, serving from cache when possible and fetching on miss. A fetch
// failure degrades to an empty roster and is not cached, so a later select
// retries the backend.
func (o *Orchestrator) SelectSession(ctx context.Context, session int) ([]shared.AttendanceRecord, error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return nil, shared.ErrStaleScope
	}
	classID := o.classID
	o.mu.Unlock()

	if o.cache.Has(classID, session) {
		return o.cache.Get(classID, session), nil
	}

	records, err := o.da.GetAttendance(ctx, classID, session)
	if err != nil {
		log.Printf("Warning: failed to fetch attendance for class %s session %d: %v", classID, session, err)
		return []shared.AttendanceRecord{}, nil
	}

	o.mu.Lock()
	stale := o.classID != classID
	o.mu.Unlock()
	if stale {
		return nil, shared.ErrStaleScope
	}

	o.cache.Set(classID, session, records)
	return records, nil
}

// SaveAttendance validates and writes the full roster for one session, then
// updates the cache. The cache is only touched after the backend confirms
// the write, so a failed save leaves the previous records intact and a retry
// is safe. The records written (with defaults applied) are returned.
func (o *Orchestrator) SaveAttendance(ctx context.Context, session int, records []shared.AttendanceRecord) ([]shared.AttendanceRecord, error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return nil, shared.ErrStaleScope
	}
	classID := o.classID
	o.mu.Unlock()

	for _, r := range records {
		if r.StudentID == "" {
			return nil, shared.NewValidationError("studentId", "required")
		}
		if r.Status != "" && !shared.IsValidStatus(r.Status) {
			return nil, shared.NewValidationError("status", fmt.Sprintf("unknown status %q", r.Status))
		}
	}

	filled := fillDefaults(records)

	if err := o.da.SaveAttendance(ctx, classID, session, filled); err != nil {
		return nil, &shared.WriteFailure{Op: "save attendance", Err: err}
	}

	o.cache.Set(classID, session, filled)
	return filled, nil
}

// fillDefaults applies the default status to rows submitted without one.
// Unmarked students count as present; this is deliberate product behavior
// and this function is the only place the default is applied.
func fillDefaults(records []shared.AttendanceRecord) []shared.AttendanceRecord {
	out := make([]shared.AttendanceRecord, len(records))
	copy(out, records)
	for i := range out {
		if out[i].Status == "" {
			out[i].Status = shared.DefaultStatus
		}
	}
	return out
}

// Comments returns the open class's per-student comments.
func (o *Orchestrator) Comments(ctx context.Context) (map[string]string, error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return nil, shared.ErrStaleScope
	}
	classID := o.classID
	o.mu.Unlock()

	comments, err := o.da.GetComments(ctx, classID)
	if err != nil {
		log.Printf("Warning: failed to fetch comments for class %s: %v", classID, err)
		return map[string]string{}, nil
	}
	return comments, nil
}

// SaveComments replaces the open class's per-student comments.
func (o *Orchestrator) SaveComments(ctx context.Context, comments map[string]string) error {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return shared.ErrStaleScope
	}
	classID := o.classID
	o.mu.Unlock()

	if err := o.da.SaveComments(ctx, classID, comments); err != nil {
		return &shared.WriteFailure{Op: "save comments", Err: err}
	}
	return nil
}

// LoadClassStats fetches every session's attendance concurrently and folds
// the results into per-student, per-session, and overall statistics. A
// failed fetch for one session counts as zero records for that session and
// never aborts the rest. If the view was closed or switched to another class
// while fetching, the result is discarded and ErrStaleScope returned.
func (o *Orchestrator) LoadClassStats(ctx context.Context) (*attendance.ClassStats, error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return nil, shared.ErrStaleScope
	}
	classID := o.classID
	sessionNumbers := make([]int, len(o.sessions))
	for i, s := range o.sessions {
		sessionNumbers[i] = s.Number
	}
	studentIDs := make([]string, len(o.students))
	for i, s := range o.students {
		studentIDs[i] = s.ID
	}
	o.mu.Unlock()

	results := make([][]shared.AttendanceRecord, len(sessionNumbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, number := range sessionNumbers {
		g.Go(func() error {
			records, err := o.da.GetAttendance(gctx, classID, number)
			if err != nil {
				log.Printf("Warning: stats fetch failed for class %s session %d: %v", classID, number, err)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	stale := o.classID != classID
	o.mu.Unlock()
	if stale {
		return nil, shared.ErrStaleScope
	}

	stats := attendance.NewClassStats(studentIDs)
	for i, number := range sessionNumbers {
		stats.AddSession(number, results[i])
	}
	return stats, nil
}
