package attendance

import (
	"testing"

	"classflow/internal/shared"
)

func TestCount_PartialRoster(t *testing.T) {
	// Three students, one session; the third has no record and must be
	// excluded from the total, not assumed into any status.
	records := []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusOnTime},
		{StudentID: "STU_2", Status: shared.StatusAbsent},
	}

	c := Count(records)
	if c.OnTime != 1 || c.Late != 0 || c.Excused != 0 || c.Absent != 1 {
		t.Errorf("counts = %+v, want onTime=1 absent=1", c)
	}
	if c.Total() != 2 {
		t.Errorf("total = %d, want 2", c.Total())
	}
	if rate := c.AttendanceRate(); rate != 50.0 {
		t.Errorf("rate = %v, want 50.0", rate)
	}
}

func TestAttendanceRate_ZeroTotal(t *testing.T) {
	var c StatusCounts
	if rate := c.AttendanceRate(); rate != 0 {
		t.Errorf("rate with no records = %v, want 0", rate)
	}
}

func TestAttendanceRate_Rounding(t *testing.T) {
	// 2 of 3 counted = 66.666...% -> 66.7 at one decimal.
	c := StatusCounts{OnTime: 1, Late: 1, Absent: 1}
	if rate := c.AttendanceRate(); rate != 66.7 {
		t.Errorf("rate = %v, want 66.7", rate)
	}
}

func TestCount_SumEqualsTotal(t *testing.T) {
	records := []shared.AttendanceRecord{
		{StudentID: "a", Status: shared.StatusOnTime},
		{StudentID: "b", Status: shared.StatusOnTime},
		{StudentID: "c", Status: shared.StatusLate},
		{StudentID: "d", Status: shared.StatusExcused},
		{StudentID: "e", Status: shared.StatusAbsent},
		{StudentID: "f", Status: shared.StatusAbsent},
	}

	c := Count(records)
	if sum := c.OnTime + c.Late + c.Excused + c.Absent; sum != len(records) {
		t.Errorf("per-status sum = %d, want %d", sum, len(records))
	}
	if c.Total() != len(records) {
		t.Errorf("Total = %d, want %d", c.Total(), len(records))
	}
}

func TestCount_UnknownStatusIgnored(t *testing.T) {
	records := []shared.AttendanceRecord{
		{StudentID: "a", Status: shared.StatusOnTime},
		{StudentID: "b", Status: shared.AttendanceStatus("present")},
	}

	c := Count(records)
	if c.Total() != 1 {
		t.Errorf("total = %d, want 1 (unknown status must not be counted)", c.Total())
	}
}

func TestClassStats_AddSession(t *testing.T) {
	cs := NewClassStats([]string{"STU_1", "STU_2", "STU_3"})

	cs.AddSession(1, []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusOnTime},
		{StudentID: "STU_2", Status: shared.StatusLate},
		{StudentID: "STU_3", Status: shared.StatusAbsent},
	})
	cs.AddSession(2, []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusOnTime},
		{StudentID: "STU_2", Status: shared.StatusOnTime},
	})
	// Session 3 fetch failed upstream: zero records, aggregation continues.
	cs.AddSession(3, nil)

	if cs.CompletedSessions != 2 {
		t.Errorf("completed sessions = %d, want 2", cs.CompletedSessions)
	}
	if got := cs.StudentCounts("STU_1"); got.OnTime != 2 || got.Total() != 2 {
		t.Errorf("STU_1 counts = %+v, want 2 on-time", got)
	}
	if got := cs.StudentCounts("STU_2"); got.OnTime != 1 || got.Late != 1 {
		t.Errorf("STU_2 counts = %+v, want 1 on-time 1 late", got)
	}
	if got := cs.StudentCounts("STU_3"); got.Absent != 1 || got.Total() != 1 {
		t.Errorf("STU_3 counts = %+v, want 1 absent", got)
	}
	if cs.Overall.Total() != 5 {
		t.Errorf("overall total = %d, want 5", cs.Overall.Total())
	}
	if got := cs.PerSession[2]; got.OnTime != 2 || got.Total() != 2 {
		t.Errorf("session 2 counts = %+v", got)
	}
}

func TestClassStats_SeededStudentsAlwaysPresent(t *testing.T) {
	cs := NewClassStats([]string{"STU_1"})

	if _, ok := cs.PerStudent["STU_1"]; !ok {
		t.Error("seeded student missing from PerStudent")
	}
	if got := cs.StudentCounts("STU_1"); got.Total() != 0 {
		t.Errorf("seeded student counts = %+v, want zeroes", got)
	}
}

func TestClassStats_CompletionRate(t *testing.T) {
	cs := NewClassStats(nil)
	cs.AddSession(1, []shared.AttendanceRecord{{StudentID: "a", Status: shared.StatusOnTime}})
	cs.AddSession(2, nil)

	if rate := cs.CompletionRate(15); rate != 6.7 {
		t.Errorf("completion rate = %v, want 6.7", rate)
	}
	if rate := cs.CompletionRate(0); rate != 0 {
		t.Errorf("completion rate with zero sessions = %v, want 0", rate)
	}
}

func TestRollup_Summary(t *testing.T) {
	csA := NewClassStats(nil)
	csA.AddSession(1, []shared.AttendanceRecord{
		{StudentID: "a", Status: shared.StatusOnTime},
		{StudentID: "b", Status: shared.StatusAbsent},
	})
	csB := NewClassStats(nil)
	csB.AddSession(1, []shared.AttendanceRecord{
		{StudentID: "c", Status: shared.StatusLate},
	})

	var r Rollup
	r.AddClass(10, 15, csA)
	r.AddClass(20, 10, csB)

	summary := r.Summary()
	if summary.TotalClasses != 2 || summary.TotalStudents != 30 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.TotalSessions != 25 || summary.CompletedSessions != 2 {
		t.Errorf("sessions = %d/%d, want 2/25", summary.CompletedSessions, summary.TotalSessions)
	}
	if summary.CompletionRate != 8.0 {
		t.Errorf("completion rate = %v, want 8.0", summary.CompletionRate)
	}
	if summary.AverageClassSize != 15.0 {
		t.Errorf("average class size = %v, want 15.0", summary.AverageClassSize)
	}
	// 2 of 3 records on-time or late.
	if summary.AttendanceRate != 66.7 {
		t.Errorf("attendance rate = %v, want 66.7", summary.AttendanceRate)
	}
}

func TestRollup_EmptyScope(t *testing.T) {
	var r Rollup

	summary := r.Summary()
	if summary.AverageClassSize != 0 || summary.CompletionRate != 0 || summary.AttendanceRate != 0 {
		t.Errorf("empty rollup summary = %+v, want zeroes", summary)
	}
}
