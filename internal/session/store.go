package session

import (
	"sync"
	"time"
)

// Store keys live conversation records by call ID. Calls are independent;
// the store itself is the only shared mutable state between them.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// GetOrCreate returns the record for a call, creating it at the greeting
// state on the first turn. Safe for concurrent callers; exactly one record
// is ever created per call ID.
func (s *Store) GetOrCreate(callID string) (rec *Record, created bool) {
	s.mu.RLock()
	rec, ok := s.records[callID]
	s.mu.RUnlock()
	if ok {
		return rec, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok = s.records[callID]; ok {
		return rec, false
	}
	rec = &Record{
		CallID:    callID,
		State:     StateGreeting,
		CreatedAt: time.Now(),
	}
	s.records[callID] = rec
	return rec, true
}

// Get returns the record for a call, or nil.
func (s *Store) Get(callID string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[callID]
}

// Delete removes a call's record.
func (s *Store) Delete(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, callID)
}

// ActiveCount reports how many calls are live (not yet ended).
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.records {
		// Ended is written under the record's own lock during turns.
		rec.Lock()
		ended := rec.Ended
		rec.Unlock()
		if !ended {
			n++
		}
	}
	return n
}

// Sweep drops ended records older than maxAge. Ended records linger briefly
// so a transport-level duplicate of the final turn hits the original
// record's one-shot flags instead of a fresh record.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		rec.Lock()
		done := rec.Ended && rec.EndedAt.Before(cutoff)
		rec.Unlock()
		if done {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}
