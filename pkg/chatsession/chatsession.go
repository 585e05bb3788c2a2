// Package chatsession implements the in-memory chat history half of the
// Session/Platform Façade (C16): a capped, FIFO-pruned turn history per
// session id, guarded by one lock per session exactly like the teacher's
// pkg/session/types.go (spec.md §4.16, §9's "shared mutable tables"
// design note).
package chatsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxTurns bounds how many turns a session retains before the
// oldest is dropped (implementation default; spec.md §3/§4.16 name the
// FIFO cap but not a specific N).
const DefaultMaxTurns = 40

// Role labels a Turn's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's history (spec.md §3: "ordered sequence
// of {role, content, metadata}").
type Turn struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// State is a session's place in the {empty → active ↔ active → cleared}
// machine spec.md §4.16 describes. A cleared session can still accept new
// turns — reset empties the history, it doesn't retire the id — so
// AddTurn on a cleared session transitions it back to active; this
// extends the diagram rather than contradicting it, since the diagram
// never says cleared is terminal.
type State string

const (
	StateEmpty   State = "empty"
	StateActive  State = "active"
	StateCleared State = "cleared"
)

// Session is one conversation's capped turn history.
type Session struct {
	ID        string
	Turns     []Turn
	State     State
	MaxTurns  int
	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.RWMutex
}

// AddTurn appends a turn, pruning the oldest once MaxTurns is exceeded
// (spec.md §3: "pruned FIFO when the cap is exceeded").
func (s *Session) AddTurn(role Role, content string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Metadata: metadata})
	if over := len(s.Turns) - s.MaxTurns; over > 0 {
		s.Turns = s.Turns[over:]
	}
	s.State = StateActive
	s.UpdatedAt = time.Now()
}

// Clear empties the turn history and moves the session to StateCleared.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Turns = nil
	s.State = StateCleared
	s.UpdatedAt = time.Now()
}

// Clone returns a safe copy of the session for reading, mirroring the
// teacher's pkg/session/types.go Clone method.
func (s *Session) Clone() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)

	return Session{
		ID:        s.ID,
		Turns:     turns,
		State:     s.State,
		MaxTurns:  s.MaxTurns,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Manager holds every live session in memory, keyed by id.
type Manager struct {
	sessions map[string]*Session
	maxTurns int
	mu       sync.RWMutex
}

// NewManager builds a Manager. maxTurns <= 0 uses DefaultMaxTurns.
func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{sessions: make(map[string]*Session), maxTurns: maxTurns}
}

// GetOrCreate returns the session for sessionID, creating a fresh
// StateEmpty one if sessionID is empty or unknown. An empty sessionID
// always mints a new id, so the caller can distinguish "continue this
// conversation" from "start a new one" the same way the teacher's
// Manager.Create does.
func (m *Manager) GetOrCreate(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID != "" {
		if s, ok := m.sessions[sessionID]; ok {
			return s
		}
	}

	id := sessionID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	s := &Session{ID: id, State: StateEmpty, MaxTurns: m.maxTurns, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = s
	return s
}

// Get retrieves a session by id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return s, nil
}

// List returns a read-safe snapshot of every session.
func (m *Manager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// Delete removes a session entirely.
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(m.sessions, sessionID)
	return nil
}
