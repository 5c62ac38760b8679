// Package memory is a process-lifetime interview.Store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/spigell/interview-agent/internal/interview"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
}

func New() *Store {
	return &Store{sessions: make(map[string]*interview.Session)}
}

func (s *Store) Create(_ context.Context, session *interview.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*interview.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interview.ErrNotFound, id)
	}
	return session.Clone(), nil
}

func (s *Store) Save(_ context.Context, session *interview.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("%w: %s", interview.ErrNotFound, session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
