package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
)

// DefaultMaxIterations bounds loops whose condition misbehaves.
const DefaultMaxIterations = 100

// Loop runs its body while the condition holds.
//
// Sign convention, fixed once for the whole engine: the condition answers
// "continue?" — true runs another iteration, false terminates. There is no
// inverted entry point. The condition is evaluated before every iteration,
// including the first, so a condition that is false immediately runs the body
// zero times.
//
// Iterations are strictly sequential; iteration n+1 never begins before
// iteration n's body and condition check complete. MaxIterations is a safety
// bound against runaway loops, not a unit of business logic.
type Loop struct {
	body Template
	cond Predicate
	max  int
}

// LoopOption configures a loop.
type LoopOption func(*Loop)

// WithMaxIterations overrides the safety bound (minimum 1).
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.max = n
		}
	}
}

// NewLoop creates a loop running body while cond returns true.
func NewLoop(body Template, cond Predicate, opts ...LoopOption) (*Loop, error) {
	if body == nil {
		return nil, fmt.Errorf("loop requires a body")
	}
	if cond == nil {
		return nil, fmt.Errorf("loop requires a condition")
	}
	l := &Loop{body: body, cond: cond, max: DefaultMaxIterations}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Execute iterates until the condition is false or the bound is reached,
// whichever comes first.
func (l *Loop) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	current := sess
	for iteration := 0; iteration < l.max; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.cond(current) {
			return current, nil
		}
		next, err := l.body.Execute(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("loop iteration %d: %w", iteration, err)
		}
		current = next
	}
	return current, nil
}
