package schedule

import (
	"testing"
	"time"

	"classflow/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_MondayClass(t *testing.T) {
	// Class starts 2024-09-02 (a Monday), meets Mondays, 15 sessions.
	sessions := Generate(date(2024, time.September, 2), 1, 15)

	if len(sessions) != 15 {
		t.Fatalf("expected 15 sessions, got %d", len(sessions))
	}
	if !sessions[0].Date.Equal(date(2024, time.September, 2)) {
		t.Errorf("session 1 date = %v, want 2024-09-02", sessions[0].Date)
	}
	if !sessions[1].Date.Equal(date(2024, time.September, 9)) {
		t.Errorf("session 2 date = %v, want 2024-09-09", sessions[1].Date)
	}
	if !sessions[14].Date.Equal(date(2024, time.December, 9)) {
		t.Errorf("session 15 date = %v, want 2024-12-09", sessions[14].Date)
	}
}

func TestGenerate_AdvancesToFirstMatchingWeekday(t *testing.T) {
	// 2024-01-15 is a Monday; a Tuesday class must start 2024-01-16.
	sessions := Generate(date(2024, time.January, 15), 2, 3)

	if !sessions[0].Date.Equal(date(2024, time.January, 16)) {
		t.Errorf("session 1 date = %v, want 2024-01-16", sessions[0].Date)
	}
}

func TestGenerate_Properties(t *testing.T) {
	starts := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		date(2024, time.December, 31),
		date(2025, time.June, 15),
	}

	for _, start := range starts {
		for weekDay := 0; weekDay <= 6; weekDay++ {
			sessions := Generate(start, weekDay, 10)

			if len(sessions) != 10 {
				t.Fatalf("start=%v weekDay=%d: got %d sessions", start, weekDay, len(sessions))
			}
			if int(sessions[0].Date.Weekday()) != weekDay {
				t.Errorf("start=%v weekDay=%d: first session on %v", start, weekDay, sessions[0].Date.Weekday())
			}
			if sessions[0].Date.Before(start) {
				t.Errorf("start=%v weekDay=%d: first session %v before start", start, weekDay, sessions[0].Date)
			}
			if sessions[0].Date.Sub(start) >= 7*24*time.Hour {
				t.Errorf("start=%v weekDay=%d: first session %v more than a week out", start, weekDay, sessions[0].Date)
			}
			for i := 1; i < len(sessions); i++ {
				if sessions[i].Number != sessions[i-1].Number+1 {
					t.Errorf("session numbers not sequential at %d", i)
				}
				if gap := sessions[i].Date.Sub(sessions[i-1].Date); gap != 7*24*time.Hour {
					t.Errorf("gap between session %d and %d = %v, want 168h", i, i+1, gap)
				}
			}
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	start := date(2024, time.September, 2)

	first := Generate(start, 1, 15)
	second := Generate(start, 1, 15)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("session %d differs between runs: %+v vs %+v", i+1, first[i], second[i])
		}
	}
}

func TestGenerate_WeekdayFallback(t *testing.T) {
	// Out-of-range weekday means no constraint: anchor at the start date.
	start := date(2024, time.March, 7) // a Thursday

	for _, weekDay := range []int{-1, 7, 99} {
		sessions := Generate(start, weekDay, 4)
		if !sessions[0].Date.Equal(start) {
			t.Errorf("weekDay=%d: session 1 date = %v, want start date", weekDay, sessions[0].Date)
		}
		if !sessions[3].Date.Equal(start.AddDate(0, 0, 21)) {
			t.Errorf("weekDay=%d: session 4 date = %v, want start+21d", weekDay, sessions[3].Date)
		}
	}
}

func TestGenerate_InvalidCount(t *testing.T) {
	for _, count := range []int{0, -3} {
		sessions := Generate(date(2024, time.September, 2), 1, count)
		if len(sessions) != 0 {
			t.Errorf("count=%d: expected empty schedule, got %d sessions", count, len(sessions))
		}
	}
}

func TestGenerate_DropsTimeOfDay(t *testing.T) {
	noon := time.Date(2024, time.September, 2, 12, 30, 0, 0, time.UTC)

	sessions := Generate(noon, 1, 1)
	if !sessions[0].Date.Equal(date(2024, time.September, 2)) {
		t.Errorf("session 1 date = %v, want midnight 2024-09-02", sessions[0].Date)
	}
}

func TestPreview_HeadPlusLast(t *testing.T) {
	start := date(2024, time.September, 2)

	preview := Preview(start, 1, 15, 5)
	if len(preview) != 6 {
		t.Fatalf("expected 6 preview entries, got %d", len(preview))
	}

	full := Generate(start, 1, 15)
	for i := 0; i < 5; i++ {
		if preview[i] != full[i] {
			t.Errorf("preview entry %d differs from schedule", i)
		}
	}
	if preview[5] != full[14] {
		t.Errorf("preview tail = %+v, want final session %+v", preview[5], full[14])
	}
}

func TestPreview_ShortScheduleReturnedWhole(t *testing.T) {
	preview := Preview(date(2024, time.September, 2), 1, 4, 5)
	if len(preview) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(preview))
	}
}

func TestGenerate_StatusScheduled(t *testing.T) {
	sessions := Generate(date(2024, time.September, 2), 1, 2)
	for _, s := range sessions {
		if s.Status != shared.SessionScheduled {
			t.Errorf("session %d status = %q, want scheduled", s.Number, s.Status)
		}
	}
}
