// ============================================================================
// internal/schedule/schedule.go
// Session schedule derivation from a class start date and weekday
// ============================================================================

// Package schedule derives the meeting dates of a class from its start date,
// weekday, and session count. Generation is a pure function of its inputs:
// the same class parameters always produce the same schedule, so the preview
// shown while editing a class and the authoritative schedule used for
// attendance can never drift apart.
package schedule

import (
	"time"

	"classflow/internal/shared"
)

// maxWeekdayScan bounds the day-by-day search for the first matching
// weekday; any weekday is reachable within seven days.
const maxWeekdayScan = 7

// Generate returns the ordered session descriptors for a class starting at
// startDate, meeting on weekDay (0-6, Sunday=0), count sessions long.
//
// Session 1 falls on the first date on or after startDate whose weekday is
// weekDay; session n falls exactly (n-1) weeks later. A weekDay outside 0-6
// means "no weekday constraint": session 1 is anchored at startDate itself.
// That fallback is deliberate policy carried over from the legacy backends,
// not a silent failure. A count below 1 yields an empty schedule.
func Generate(startDate time.Time, weekDay, count int) []shared.SessionDescriptor {
	if count < 1 {
		return []shared.SessionDescriptor{}
	}

	first := truncateToDay(startDate)
	if weekDay >= 0 && weekDay <= 6 {
		for i := 0; i < maxWeekdayScan; i++ {
			if int(first.Weekday()) == weekDay {
				break
			}
			first = first.AddDate(0, 0, 1)
		}
	}

	sessions := make([]shared.SessionDescriptor, 0, count)
	for i := 0; i < count; i++ {
		sessions = append(sessions, shared.SessionDescriptor{
			Number: i + 1,
			Date:   first.AddDate(0, 0, 7*i),
			Status: shared.SessionScheduled,
		})
	}

	return sessions
}

// Preview returns the head sessions plus the final session of the schedule,
// for compact rendering while a class is being edited. It reuses Generate so
// the preview always matches the real schedule.
func Preview(startDate time.Time, weekDay, count, head int) []shared.SessionDescriptor {
	sessions := Generate(startDate, weekDay, count)
	if head < 0 {
		head = 0
	}
	if len(sessions) <= head+1 {
		return sessions
	}

	preview := make([]shared.SessionDescriptor, 0, head+1)
	preview = append(preview, sessions[:head]...)
	preview = append(preview, sessions[len(sessions)-1])
	return preview
}

// truncateToDay drops the time-of-day component so schedules compare equal
// regardless of the clock value carried by the stored start date.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
