// internal/model/session.go
package model

import (
	"sync"
	"time"
)

// BridgeSession holds the identity obtained from the backend on
// registration. It is read by every timer tick and written only by the
// registration flow and shutdown, so access is mutex-guarded.
type BridgeSession struct {
	mu sync.RWMutex

	accountID         string
	bridgeName        string
	registered        bool
	pollInterval      time.Duration
	heartbeatInterval time.Duration
}

// NewBridgeSession creates an unregistered session with configured defaults
func NewBridgeSession(pollInterval, heartbeatInterval time.Duration) *BridgeSession {
	return &BridgeSession{
		pollInterval:      pollInterval,
		heartbeatInterval: heartbeatInterval,
	}
}

// Register stores backend-assigned identity and marks the session registered.
// A zero pollInterval keeps the configured default.
func (s *BridgeSession) Register(accountID, bridgeName string, pollInterval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountID = accountID
	s.bridgeName = bridgeName
	if pollInterval > 0 {
		s.pollInterval = pollInterval
	}
	s.registered = true
}

// Reset marks the session unregistered
func (s *BridgeSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountID = ""
	s.bridgeName = ""
	s.registered = false
}

// IsRegistered reports whether registration has succeeded
func (s *BridgeSession) IsRegistered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered
}

// AccountID returns the backend-assigned account id
func (s *BridgeSession) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// BridgeName returns the backend-assigned bridge name
func (s *BridgeSession) BridgeName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bridgeName
}

// PollInterval returns the effective poll interval
func (s *BridgeSession) PollInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollInterval
}

// HeartbeatInterval returns the effective heartbeat interval
func (s *BridgeSession) HeartbeatInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heartbeatInterval
}

// PrinterSession is the per-device-URL authentication state. Caspos uses
// only the LoggedIn flag; Omnitech additionally carries the access token
// and the time it was obtained. There is no expiry tracking: sessions are
// invalidated reactively when the device reports an auth failure.
type PrinterSession struct {
	LoggedIn    bool      `json:"logged_in"`
	AccessToken string    `json:"access_token,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at,omitempty"`
}
