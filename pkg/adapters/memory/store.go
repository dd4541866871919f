// Package memory provides in-process adapters, useful for tests and
// embedded scenarios where persistence across restarts is not needed.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/weave/pkg/session"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*session.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*session.Session),
	}
}

// Save keeps a reference to the session. Sessions are immutable, so no
// defensive copy is needed: later derivations by the caller never affect the
// stored value.
func (s *Store) Save(ctx context.Context, sessionID string, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = sess
	return nil
}

// Load retrieves the stored session.
func (s *Store) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the IDs of all stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
