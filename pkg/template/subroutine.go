package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
)

// InitFunc derives the child session a subroutine starts from.
type InitFunc func(parent *session.Session) *session.Session

// SquashFunc folds the finished child session back into the parent.
type SquashFunc func(parent, child *session.Session) *session.Session

// Subroutine executes its body against a derived child session and squashes
// only the final result back into the parent. Intermediate child states are
// never visible outside.
//
// Defaults: the child starts fresh from the parent's vars (full inheritance);
// after the body finishes, the child's messages are appended to the parent and
// the child's final vars are merged in. WithIsolatedContext starts the child
// with empty vars and discards its vars afterwards; WithoutMessages discards
// the child's transcript.
type Subroutine struct {
	body     Template
	init     InitFunc
	squash   SquashFunc
	retain   bool
	isolated bool
}

// SubroutineOption configures a subroutine.
type SubroutineOption func(*Subroutine)

// WithInit replaces the default child-session derivation.
func WithInit(fn InitFunc) SubroutineOption {
	return func(s *Subroutine) {
		s.init = fn
	}
}

// WithSquash replaces the default merge of the finished child into the parent.
func WithSquash(fn SquashFunc) SubroutineOption {
	return func(s *Subroutine) {
		s.squash = fn
	}
}

// WithIsolatedContext starts the child with empty vars and keeps its vars out
// of the parent afterwards.
func WithIsolatedContext() SubroutineOption {
	return func(s *Subroutine) {
		s.isolated = true
	}
}

// WithoutMessages keeps the child's transcript out of the parent.
func WithoutMessages() SubroutineOption {
	return func(s *Subroutine) {
		s.retain = false
	}
}

// NewSubroutine creates a subroutine around body.
func NewSubroutine(body Template, opts ...SubroutineOption) (*Subroutine, error) {
	if body == nil {
		return nil, fmt.Errorf("subroutine requires a body")
	}
	s := &Subroutine{body: body, retain: true}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Execute runs the body in the child session and squashes the result.
func (s *Subroutine) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	child := s.deriveChild(sess)

	finished, err := s.body.Execute(ctx, child)
	if err != nil {
		return nil, fmt.Errorf("subroutine body: %w", err)
	}

	if s.squash != nil {
		result := s.squash(sess, finished)
		if result == nil {
			return nil, fmt.Errorf("subroutine squash returned a nil session")
		}
		return result, nil
	}
	return s.defaultSquash(sess, finished), nil
}

func (s *Subroutine) deriveChild(parent *session.Session) *session.Session {
	if s.init != nil {
		return s.init(parent)
	}
	opts := []session.Option{
		session.WithPrint(parent.Print()),
	}
	if obs := parent.Observer(); obs != nil {
		opts = append(opts, session.WithObserver(obs))
	}
	if !s.isolated {
		opts = append(opts, session.WithVars(parent.Vars()))
	}
	return session.New(opts...)
}

func (s *Subroutine) defaultSquash(parent, child *session.Session) *session.Session {
	result := parent
	if s.retain {
		// The child transcript is appended without echoing: anything worth
		// showing was already echoed while the body ran.
		quiet := result.WithPrint(false)
		for _, msg := range child.Messages() {
			quiet = quiet.Append(msg)
		}
		result = quiet.WithPrint(parent.Print())
	}
	if !s.isolated {
		result = result.MergeVars(child.Vars())
	}
	return result
}
