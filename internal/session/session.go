// Package session holds the shopper's identity and bearer credential as an
// explicit object with a defined lifecycle: established at sign-in, torn down
// at sign-out, restored from persisted storage at process start.
package session

import (
	"fmt"
	"sync"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Session is the current shopper identity plus the credential attached to
// every remote request.
type Session struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}

// Store persists a session across process restarts.
type Store interface {
	Load() (Session, bool, error)
	Save(Session) error
	Clear() error
}

// Manager owns the lifecycle of the one active session.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Restore loads a previously persisted session, if any. Called once at
// process start; a missing or unreadable file simply means signed-out.
func (m *Manager) Restore() error {
	s, ok, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("store.Load: %w", err)
	}
	if !ok || s.Token == "" {
		return nil
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

// Establish installs and persists a freshly authenticated session.
func (m *Manager) Establish(s Session) error {
	if s.Token == "" {
		return fmt.Errorf("session token is empty")
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	if err := m.store.Save(s); err != nil {
		return fmt.Errorf("store.Save: %w", err)
	}
	return nil
}

// SignOut tears the session down and removes the persisted credential.
func (m *Manager) SignOut() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("store.Clear: %w", err)
	}
	return nil
}

// Current returns the active session, if one exists.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Token implements the credential source used by the remote clients.
func (m *Manager) Token() (string, bool) {
	s, ok := m.Current()
	if !ok {
		return "", false
	}
	return s.Token, true
}
