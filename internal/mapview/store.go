package mapview

import (
	"sync"
	"time"
)

// SessionStore holds open map sessions in memory.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Add stores a session under its ID.
func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess
}

// Get returns a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session by ID and reports whether it existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len is the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// List returns a snapshot of all sessions.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	return result
}

// Sweep removes sessions idle since before now-maxAge and returns their IDs.
// Sessions with an open legend stream are kept.
func (s *SessionStore) Sweep(now time.Time, maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, sess := range s.sessions {
		if sess.streaming() {
			continue
		}
		if now.Sub(sess.LastSeen()) > maxAge {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
