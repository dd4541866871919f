package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
)

// User appends exactly one user message per execution. Content comes either
// from a static string (interpolated against session vars, like System) or
// from any content source, whose retry/validation envelope applies unchanged.
type User struct {
	static string
	isStat bool
	src    source.Source
}

// NewUser creates a user template reading from a content source (typically an
// Input source wired to an interactive channel).
func NewUser(src source.Source) (*User, error) {
	if src == nil {
		return nil, fmt.Errorf("user template requires a content source")
	}
	return &User{src: src}, nil
}

// NewUserStatic creates a user template with fixed, interpolated content.
func NewUserStatic(content string) *User {
	return &User{static: content, isStat: true}
}

// Execute acquires the content and appends the user message.
func (t *User) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if t.isStat {
		content := interpolateVars(t.static, sess)
		return sess.Append(session.NewMessage(session.RoleUser, content)), nil
	}

	out, err := t.src.GetContent(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("user template: %w", err)
	}
	return sess.Append(session.NewMessage(session.RoleUser, out.Content)), nil
}
