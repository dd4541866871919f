package template

import (
	"context"

	"github.com/aretw0/weave/pkg/session"
)

// Template is a single execution node: it consumes a session and produces a
// new one. Composites delegate to children and thread the returned session to
// the next step; no node ever mutates the session it was given.
type Template interface {
	Execute(ctx context.Context, sess *session.Session) (*session.Session, error)
}

// Func adapts a function to the Template interface.
type Func func(ctx context.Context, sess *session.Session) (*session.Session, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	return f(ctx, sess)
}

// Predicate decides a branch or loop continuation against the current session.
type Predicate func(sess *session.Session) bool
