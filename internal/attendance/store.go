// ============================================================================
// internal/attendance/store.go
// Keyed in-memory cache of attendance records per (class, session)
// ============================================================================

// Package attendance holds the attendance cache and the aggregation logic
// that rolls records up into per-student, per-session, and per-class
// statistics.
package attendance

import (
	"sync"

	"classflow/internal/shared"
)

type cacheKey struct {
	classID string
	session int
}

// Store is the single source of truth for attendance records held in memory
// while a class detail view is open. Set fully replaces the roster for a
// session (a save submits the complete roster, never a partial merge), and
// entries only appear via Set or a fetch-then-cache on Get miss — the store
// never refetches on its own.
//
// Access is expected to be cooperative (one active view at a time); the
// mutex only guards against the gateway sharing one store across requests.
type Store struct {
	mu      sync.Mutex
	records map[cacheKey][]shared.AttendanceRecord
}

// NewStore creates an empty attendance store.
func NewStore() *Store {
	return &Store{records: make(map[cacheKey][]shared.AttendanceRecord)}
}

// Has reports whether records for (classID, session) are cached. A cached
// empty roster still counts as present.
func (s *Store) Has(classID string, session int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[cacheKey{classID, session}]
	return ok
}

// Get returns the cached records for (classID, session) in insertion order.
// It returns an empty slice, never nil, when nothing is cached.
func (s *Store) Get(classID string, session int) []shared.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.records[cacheKey{classID, session}]
	if !ok {
		return []shared.AttendanceRecord{}
	}

	out := make([]shared.AttendanceRecord, len(cached))
	copy(out, cached)
	return out
}

// Set replaces the cached records for (classID, session) with records.
// Callers must only Set after a confirmed backend write (or fetch); a failed
// save must leave the previous entry untouched.
func (s *Store) Set(classID string, session int, records []shared.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]shared.AttendanceRecord, len(records))
	copy(stored, records)
	s.records[cacheKey{classID, session}] = stored
}

// Clear drops every cached entry. Invoked when switching to a different
// class so stale records from the previous class cannot leak into views.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[cacheKey][]shared.AttendanceRecord)
}

// Len returns the number of cached (class, session) entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
