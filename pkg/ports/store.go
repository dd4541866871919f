package ports

import (
	"context"

	"github.com/aretw0/weave/pkg/session"
)

// SessionStore defines the interface for persisting conversation sessions.
// This enables durable conversations that survive process restarts.
type SessionStore interface {
	// Save persists the session under the given ID.
	Save(ctx context.Context, sessionID string, sess *session.Session) error

	// Load retrieves the session for a given ID.
	// Returns session.ErrNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*session.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
