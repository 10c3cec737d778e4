package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	s        *Session
	lastUsed time.Time
}

// Store keeps sessions in memory. Each session is locked independently, so
// requests on different sessions run concurrently. Idle sessions are evicted
// lazily on access once their TTL has passed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	limit    int
	now      func() time.Time
}

// NewStore creates a store. ttl <= 0 disables expiry and limit <= 0 disables
// the session limit.
func NewStore(ttl time.Duration, limit int) *Store {
	return &Store{sessions: map[string]*entry{}, ttl: ttl, limit: limit, now: time.Now}
}

// Add registers s, evicting expired sessions and then, when the store is
// full, the least recently used one. It returns the number evicted.
func (st *Store) Add(s *Session) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	evicted := st.evictExpiredLocked(now)
	for st.limit > 0 && len(st.sessions) >= st.limit {
		var oldest string
		var at time.Time
		for id, e := range st.sessions {
			if oldest == "" || e.lastUsed.Before(at) {
				oldest, at = id, e.lastUsed
			}
		}
		delete(st.sessions, oldest)
		evicted++
	}
	st.sessions[s.ID] = &entry{s: s, lastUsed: now}
	return evicted
}

// With runs fn with exclusive access to the session id.
func (st *Store) With(id string, fn func(*Session) error) error {
	st.mu.Lock()
	now := st.now()
	st.evictExpiredLocked(now)
	e, ok := st.sessions[id]
	if ok {
		e.lastUsed = now
	}
	st.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.s)
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictExpiredLocked(st.now())
	return len(st.sessions)
}

func (st *Store) evictExpiredLocked(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	n := 0
	for id, e := range st.sessions {
		if now.Sub(e.lastUsed) > st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
