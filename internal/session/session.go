package session

import (
	"sync"
	"time"
)

// Speaker labels a chat turn.
type Speaker string

const (
	SpeakerUser Speaker = "You"
	SpeakerBot  Speaker = "Bot"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Turn is one entry in the chat log.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of session metadata.
type Snapshot struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	Turns          int       `json:"turns"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Session holds the chat log for one user session. The log lives only in
// memory and is dropped when the session ends or the process exits.
type Session struct {
	ID        string
	StartedAt time.Time

	mu             sync.RWMutex
	status         Status
	history        []Turn
	lastActivityAt time.Time

	// request serializes Exclusive callers.
	request sync.Mutex
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:             id,
		StartedAt:      now,
		status:         StatusActive,
		lastActivityAt: now,
	}
}

// New creates a standalone session that is not tracked by a Manager.
func New(id string) *Session {
	return newSession(id, time.Now().UTC())
}

// Append adds turns to the end of the log in the order given.
func (s *Session) Append(turns ...Turn) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = now
		}
		s.history = append(s.history, t)
	}
	s.lastActivityAt = now
}

// History returns a copy of the log in submission order.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the log and keeps the session open.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.lastActivityAt = time.Now().UTC()
}

// Status reports whether the session is still usable.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns the session metadata.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:             s.ID,
		Status:         s.status,
		Turns:          len(s.history),
		StartedAt:      s.StartedAt,
		LastActivityAt: s.lastActivityAt,
	}
}

// Exclusive runs fn while holding the session's request lock, so requests on
// one session run one at a time in arrival order.
func (s *Session) Exclusive(fn func()) {
	s.request.Lock()
	defer s.request.Unlock()
	fn()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActivityAt = now
	s.mu.Unlock()
}

func (s *Session) end(now time.Time) {
	s.mu.Lock()
	s.status = StatusEnded
	s.history = nil
	s.lastActivityAt = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastActivityAt)
}
