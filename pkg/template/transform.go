package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
)

// TransformFunc derives a new session from the current one. It must be pure:
// no mutation of the input, result fully determined by it.
type TransformFunc func(sess *session.Session) (*session.Session, error)

// Transform applies one or more derivation functions in order and returns the
// result. It adds no message; typical use is extracting state from the last
// message into vars.
type Transform struct {
	fns []TransformFunc
}

// NewTransform creates a transform template. At least one function is
// required.
func NewTransform(fns ...TransformFunc) (*Transform, error) {
	if len(fns) == 0 {
		return nil, fmt.Errorf("transform template requires at least one function")
	}
	return &Transform{fns: fns}, nil
}

// Execute applies each function in sequence.
func (t *Transform) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	current := sess
	for i, fn := range t.fns {
		next, err := fn(current)
		if err != nil {
			return nil, fmt.Errorf("transform %d failed: %w", i, err)
		}
		if next == nil {
			return nil, fmt.Errorf("transform %d returned a nil session", i)
		}
		current = next
	}
	return current, nil
}
