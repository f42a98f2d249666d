// internal/gateway/sessions.go
package gateway

import (
	"sync"

	"fiscal-bridge/internal/model"
)

// SessionStore holds per-device-URL printer sessions. It is read and
// written from both the poller and the shift synchronizer, so access is
// mutex-guarded.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.PrinterSession
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*model.PrinterSession),
	}
}

// Get returns the session for a device URL, if any
func (s *SessionStore) Get(deviceURL string) (*model.PrinterSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[deviceURL]
	return session, ok
}

// Set stores a session for a device URL
func (s *SessionStore) Set(deviceURL string, session *model.PrinterSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[deviceURL] = session
}

// Invalidate drops the session for a device URL
func (s *SessionStore) Invalidate(deviceURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, deviceURL)
}

// Count returns the number of cached sessions
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
