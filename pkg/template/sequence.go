package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
)

// Sequence executes its children in order, threading the session through.
// An empty sequence is the identity.
type Sequence struct {
	children []Template
}

// NewSequence creates a sequence of children.
func NewSequence(children ...Template) *Sequence {
	return &Sequence{children: append([]Template(nil), children...)}
}

// Append adds a child at the end and returns the sequence for chaining.
func (t *Sequence) Append(child Template) *Sequence {
	t.children = append(t.children, child)
	return t
}

// Len returns the number of children.
func (t *Sequence) Len() int {
	return len(t.children)
}

// Execute runs each child in order.
func (t *Sequence) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	current := sess
	for i, child := range t.children {
		next, err := child.Execute(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i, err)
		}
		current = next
	}
	return current, nil
}
