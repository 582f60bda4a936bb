package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionExpired is returned for unknown or timed-out session tokens.
var ErrSessionExpired = errors.New("session expired or invalid")

// Session is a logged-in user's server-side state.
type Session struct {
	Token    string
	User     User
	LastSeen time.Time
}

// SessionManager issues bearer tokens and expires them after a period of
// inactivity. Lookups refresh the activity timestamp, so the timeout is
// idle time, not absolute lifetime.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager with the given idle timeout.
func NewSessionManager(timeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Create starts a session for user and returns its token.
func (m *SessionManager) Create(user User) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = &Session{Token: token, User: user, LastSeen: m.now()}
	return token
}

// Lookup resolves a token to its user, refreshing the idle clock. Expired
// sessions are removed and reported as ErrSessionExpired.
func (m *SessionManager) Lookup(token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionExpired
	}
	now := m.now()
	if now.Sub(s.LastSeen) > m.timeout {
		delete(m.sessions, token)
		return nil, ErrSessionExpired
	}
	s.LastSeen = now
	u := s.User
	return &u, nil
}

// Destroy ends a session. Destroying an unknown token is a no-op.
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len returns the number of live sessions, expired ones included until their
// next lookup.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
