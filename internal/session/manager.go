package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEnded    = errors.New("session ended")
)

// Manager tracks live sessions and expires inactive ones.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
	onExpire          func(Snapshot)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), time.Now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get returns a live session and marks it active.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status() != StatusActive {
		return nil, ErrEnded
	}
	s.touch(time.Now().UTC())
	return s, nil
}

// Reset clears a session's history.
func (m *Manager) Reset(sessionID string) (*Session, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.Reset()
	return s, nil
}

// End closes a session and forgets it.
func (m *Manager) End(sessionID string) (Snapshot, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	s.end(time.Now().UTC())
	return s.Snapshot(), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) < m.inactivityTimeout {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, s := range expired {
		s.end(now)
		if hook != nil {
			hook(s.Snapshot())
		}
	}
}
