// ============================================================================
// internal/attendance/aggregator.go
// Attendance statistics: per-student, per-session, per-class, per-CM rollups
// ============================================================================

package attendance

import (
	"github.com/montanaflynn/stats"

	"classflow/internal/shared"
)

// ============================================================================
// Status Counts
// ============================================================================

// StatusCounts tallies attendance records by status for one scope (a
// session, a student across sessions, or a whole class). Every record
// counts toward exactly one status.
type StatusCounts struct {
	OnTime  int `json:"onTime"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Absent  int `json:"absent"`
}

// Total returns the number of records counted.
func (c StatusCounts) Total() int {
	return c.OnTime + c.Late + c.Excused + c.Absent
}

// AttendanceRate returns (onTime+late)/total as a percentage rounded to one
// decimal. A scope with no records has a rate of 0, never NaN.
func (c StatusCounts) AttendanceRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return round1(float64(c.OnTime+c.Late) / float64(total) * 100)
}

// AddRecord counts one record. Records with an unknown status are ignored
// rather than miscounted.
func (c *StatusCounts) AddRecord(r shared.AttendanceRecord) {
	switch r.Status {
	case shared.StatusOnTime:
		c.OnTime++
	case shared.StatusLate:
		c.Late++
	case shared.StatusExcused:
		c.Excused++
	case shared.StatusAbsent:
		c.Absent++
	}
}

// Merge adds another tally into this one.
func (c *StatusCounts) Merge(o StatusCounts) {
	c.OnTime += o.OnTime
	c.Late += o.Late
	c.Excused += o.Excused
	c.Absent += o.Absent
}

// Count tallies a record list. Students with no record for a session are
// simply not counted — absence of a record is not assumed to be any status.
func Count(records []shared.AttendanceRecord) StatusCounts {
	var c StatusCounts
	for _, r := range records {
		c.AddRecord(r)
	}
	return c
}

// ============================================================================
// Class Statistics
// ============================================================================

// ClassStats aggregates one class's attendance across all of its sessions.
// It is built incrementally, one session at a time, so a failed fetch for a
// single session degrades to zero records without aborting the rest.
type ClassStats struct {
	PerStudent        map[string]StatusCounts `json:"perStudent"`
	PerSession        map[int]StatusCounts    `json:"perSession"`
	Overall           StatusCounts            `json:"overall"`
	CompletedSessions int                     `json:"completedSessions"`
}

// NewClassStats creates an empty aggregation. Known roster students are
// pre-seeded so the output always carries an entry (possibly zero) for each.
func NewClassStats(studentIDs []string) *ClassStats {
	perStudent := make(map[string]StatusCounts, len(studentIDs))
	for _, id := range studentIDs {
		perStudent[id] = StatusCounts{}
	}
	return &ClassStats{
		PerStudent: perStudent,
		PerSession: make(map[int]StatusCounts),
	}
}

// AddSession folds one session's records into the aggregation. A session
// with at least one record counts as completed.
func (s *ClassStats) AddSession(session int, records []shared.AttendanceRecord) {
	counts := Count(records)
	s.PerSession[session] = counts
	s.Overall.Merge(counts)
	if counts.Total() > 0 {
		s.CompletedSessions++
	}

	for _, r := range records {
		sc := s.PerStudent[r.StudentID]
		sc.AddRecord(r)
		s.PerStudent[r.StudentID] = sc
	}
}

// StudentCounts returns the tally for one student (zero if unseen).
func (s *ClassStats) StudentCounts(studentID string) StatusCounts {
	return s.PerStudent[studentID]
}

// CompletionRate returns completedSessions/totalSessions as a percentage
// rounded to one decimal, 0 when totalSessions is 0.
func (s *ClassStats) CompletionRate(totalSessions int) float64 {
	if totalSessions == 0 {
		return 0
	}
	return round1(float64(s.CompletedSessions) / float64(totalSessions) * 100)
}

// ============================================================================
// Cross-Class Rollup
// ============================================================================

// Rollup aggregates attendance across several classes, e.g. every class a
// CM manages. Build it with AddClass, then read the derived fields via
// Summary.
type Rollup struct {
	TotalClasses      int
	TotalStudents     int
	TotalSessions     int
	CompletedSessions int
	Overall           StatusCounts

	classSizes []float64
}

// AddClass folds one class into the rollup.
func (r *Rollup) AddClass(studentCount, totalSessions int, cs *ClassStats) {
	r.TotalClasses++
	r.TotalStudents += studentCount
	r.TotalSessions += totalSessions
	r.classSizes = append(r.classSizes, float64(studentCount))
	if cs != nil {
		r.CompletedSessions += cs.CompletedSessions
		r.Overall.Merge(cs.Overall)
	}
}

// RollupSummary is the derived view of a Rollup.
type RollupSummary struct {
	TotalClasses      int          `json:"totalClasses"`
	TotalStudents     int          `json:"totalStudents"`
	TotalSessions     int          `json:"totalSessions"`
	CompletedSessions int          `json:"completedSessions"`
	Counts            StatusCounts `json:"counts"`
	AttendanceRate    float64      `json:"attendanceRate"`
	CompletionRate    float64      `json:"completionRate"`
	AverageClassSize  float64      `json:"averageClassSize"`
}

// Summary computes the rollup's derived rates. Empty scopes yield zeroes.
func (r *Rollup) Summary() RollupSummary {
	summary := RollupSummary{
		TotalClasses:      r.TotalClasses,
		TotalStudents:     r.TotalStudents,
		TotalSessions:     r.TotalSessions,
		CompletedSessions: r.CompletedSessions,
		Counts:            r.Overall,
		AttendanceRate:    r.Overall.AttendanceRate(),
	}

	if r.TotalSessions > 0 {
		summary.CompletionRate = round1(float64(r.CompletedSessions) / float64(r.TotalSessions) * 100)
	}

	if len(r.classSizes) > 0 {
		if mean, err := stats.Mean(r.classSizes); err == nil {
			summary.AverageClassSize = round1(mean)
		}
	}

	return summary
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	rounded, err := stats.Round(v, 1)
	if err != nil {
		return 0
	}
	return rounded
}
