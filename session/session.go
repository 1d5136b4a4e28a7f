// Package session tracks per-conversation state: role, history, pending
// clarification, and the run's execution state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classpilot/classpilot"
)

// DefaultTTL evicts sessions idle for this long.
const DefaultTTL = 2 * time.Hour

// Session is the state of one conversation. The Manager owns the live
// record; Create and Get return detached copies, so concurrent requests
// on one session never share history or execution-state maps. Writes go
// through Update, which applies them under the manager lock.
type Session struct {
	ID       string
	Role     string
	UserID   int64
	Username string

	History []classpilot.Turn
	Pending *classpilot.PendingToolCall
	State   *classpilot.ExecutionState

	CreatedAt  time.Time
	LastActive time.Time
}

// snapshot deep-copies the fields a caller may read or feed into a run.
func (s *Session) snapshot() *Session {
	cp := *s
	cp.History = append([]classpilot.Turn(nil), s.History...)
	if s.Pending != nil {
		p := *s.Pending
		p.Missing = append([]string(nil), s.Pending.Missing...)
		cp.Pending = &p
	}
	if s.State != nil {
		cp.State = s.State.Clone()
	}
	return &cp
}

// Manager holds sessions in memory, keyed by id, with idle eviction.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session for a user. Role synonyms are normalized once
// at the boundary.
func (m *Manager) Create(role string, userID int64, username string) *Session {
	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		Role:       classpilot.NormalizeRole(role),
		UserID:     userID,
		Username:   username,
		State:      classpilot.NewExecutionState(),
		CreatedAt:  now,
		LastActive: now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s.snapshot()
}

// Get returns a copy of the session and refreshes its activity clock.
// Expired sessions are evicted and reported as absent.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(s.LastActive) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	s.LastActive = now
	return s.snapshot(), true
}

// Update applies fn to the session under the manager lock.
func (m *Manager) Update(id string, fn func(*Session)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	fn(s)
	s.LastActive = m.now()
	return true
}

// SetRole changes the session's role and drops the pending clarification,
// since the visible tool set may have changed underneath it.
func (m *Manager) SetRole(id, role string) bool {
	return m.Update(id, func(s *Session) {
		s.Role = classpilot.NormalizeRole(role)
		s.Pending = nil
	})
}

// Clear resets history, pending state, and execution state, keeping the
// session and its identity.
func (m *Manager) Clear(id string) bool {
	return m.Update(id, func(s *Session) {
		s.History = nil
		s.Pending = nil
		s.State = classpilot.NewExecutionState()
	})
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Sweep evicts every expired session and reports how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastActive) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
