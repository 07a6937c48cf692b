// Package session keeps per-visitor state: the shared dataset reference and a
// lazily built assistant. Nothing is persisted.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/ecomenu/internal/assistant"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

// Factory builds an assistant for a new session.
type Factory func() (*assistant.Assistant, error)

// Session is the context of one visitor. Lock serializes its interactions.
type Session struct {
	ID       string
	Table    *dataset.Table
	Created  time.Time
	LastSeen time.Time

	mu      sync.Mutex
	factory Factory
	asst    *assistant.Assistant
	asstErr error
	built   bool
	// Banner holds an error to show once on the next page render.
	Banner string
}

// Lock acquires the session for one interaction.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Assistant returns the session's assistant, building it on first use. A
// construction error (missing API key) is cached and returned on every call
// so the chat page can report it. Callers must hold the lock.
func (s *Session) Assistant() (*assistant.Assistant, error) {
	if !s.built {
		s.built = true
		if s.factory != nil {
			s.asst, s.asstErr = s.factory()
		}
	}
	return s.asst, s.asstErr
}

// TakeBanner returns and clears the pending banner. Callers must hold the lock.
func (s *Session) TakeBanner() string {
	b := s.Banner
	s.Banner = ""
	return b
}

// Store maps session IDs to sessions.
type Store struct {
	mu       sync.Mutex
	table    *dataset.Table
	factory  Factory
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore returns a store whose sessions share table read-only.
func NewStore(table *dataset.Table, factory Factory) *Store {
	return &Store{table: table, factory: factory, sessions: map[string]*Session{}, now: time.Now}
}

// Create starts a new session with a random UUID.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{ID: uuid.NewString(), Table: st.table, Created: now, LastSeen: now, factory: st.factory}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.LastSeen = st.now()
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating one when unknown.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Delete forgets a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many.
func (st *Store) Prune(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)
	st.mu.Lock()
	var idle []string
	for id, s := range st.sessions {
		if s.LastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	st.mu.Unlock()
	for _, id := range idle {
		st.Delete(id)
	}
	return len(idle)
}
