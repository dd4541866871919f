package template

import (
	"context"

	"github.com/aretw0/weave/pkg/session"
)

// If evaluates a predicate against the current session (after the preceding
// nodes in the same composite have run) and executes exactly one branch.
// Without an else branch, a false predicate returns the session unchanged.
type If struct {
	pred Predicate
	then Template
	els  Template
}

// NewIf creates a conditional with a then branch only.
func NewIf(pred Predicate, then Template) *If {
	return &If{pred: pred, then: then}
}

// NewIfElse creates a conditional with both branches.
func NewIfElse(pred Predicate, then, els Template) *If {
	return &If{pred: pred, then: then, els: els}
}

// Execute runs the selected branch.
func (t *If) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if t.pred(sess) {
		return t.then.Execute(ctx, sess)
	}
	if t.els != nil {
		return t.els.Execute(ctx, sess)
	}
	return sess, nil
}
