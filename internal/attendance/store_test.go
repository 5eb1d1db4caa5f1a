package attendance

import (
	"reflect"
	"testing"

	"classflow/internal/shared"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore()

	records := []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusOnTime},
		{StudentID: "STU_2", Status: shared.StatusAbsent, Note: "sick"},
		{StudentID: "STU_3", Status: shared.StatusLate},
	}
	s.Set("CLS_1", 3, records)

	if !s.Has("CLS_1", 3) {
		t.Fatal("Has returned false after Set")
	}
	got := s.Get("CLS_1", 3)
	if !reflect.DeepEqual(got, records) {
		t.Errorf("Get = %+v, want %+v", got, records)
	}
}

func TestStore_GetMissReturnsEmptyNotNil(t *testing.T) {
	s := NewStore()

	got := s.Get("CLS_1", 1)
	if got == nil {
		t.Fatal("Get returned nil for a miss")
	}
	if len(got) != 0 {
		t.Errorf("Get returned %d records for a miss", len(got))
	}
	if s.Has("CLS_1", 1) {
		t.Error("Get on a miss must not create an entry")
	}
}

func TestStore_SetReplacesNotMerges(t *testing.T) {
	s := NewStore()

	s.Set("CLS_1", 1, []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusOnTime},
		{StudentID: "STU_2", Status: shared.StatusOnTime},
	})
	replacement := []shared.AttendanceRecord{
		{StudentID: "STU_1", Status: shared.StatusAbsent},
	}
	s.Set("CLS_1", 1, replacement)

	got := s.Get("CLS_1", 1)
	if !reflect.DeepEqual(got, replacement) {
		t.Errorf("Get after replace = %+v, want %+v", got, replacement)
	}
}

func TestStore_KeysAreDisjoint(t *testing.T) {
	s := NewStore()

	s.Set("CLS_1", 1, []shared.AttendanceRecord{{StudentID: "STU_1", Status: shared.StatusOnTime}})
	s.Set("CLS_1", 2, []shared.AttendanceRecord{{StudentID: "STU_1", Status: shared.StatusLate}})
	s.Set("CLS_2", 1, []shared.AttendanceRecord{{StudentID: "STU_9", Status: shared.StatusAbsent}})

	if s.Get("CLS_1", 1)[0].Status != shared.StatusOnTime {
		t.Error("session 1 entry affected by other keys")
	}
	if s.Get("CLS_1", 2)[0].Status != shared.StatusLate {
		t.Error("session 2 entry affected by other keys")
	}
	if s.Get("CLS_2", 1)[0].StudentID != "STU_9" {
		t.Error("entries leaked across classes")
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()

	s.Set("CLS_1", 1, []shared.AttendanceRecord{{StudentID: "STU_1", Status: shared.StatusOnTime}})
	s.Set("CLS_2", 4, []shared.AttendanceRecord{{StudentID: "STU_2", Status: shared.StatusLate}})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}
	if s.Has("CLS_1", 1) || s.Has("CLS_2", 4) {
		t.Error("entries survived Clear")
	}
}

func TestStore_CachedEmptyRosterCounts(t *testing.T) {
	s := NewStore()

	s.Set("CLS_1", 1, []shared.AttendanceRecord{})
	if !s.Has("CLS_1", 1) {
		t.Error("a cached empty roster must still count as cached")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()

	s.Set("CLS_1", 1, []shared.AttendanceRecord{{StudentID: "STU_1", Status: shared.StatusOnTime}})

	got := s.Get("CLS_1", 1)
	got[0].Status = shared.StatusAbsent

	if s.Get("CLS_1", 1)[0].Status != shared.StatusOnTime {
		t.Error("mutating a Get result changed the cached entry")
	}
}
