package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/internal/interpolate"
	"github.com/aretw0/weave/pkg/session"
)

// System appends exactly one system message with static content. Placeholders
// of the form {{var}} are resolved against the session vars at execution time;
// missing variables resolve to the empty string (documented, not an error).
type System struct {
	content string
}

// NewSystem creates a system template. Empty content is a construction error.
func NewSystem(content string) (*System, error) {
	if content == "" {
		return nil, fmt.Errorf("system template requires content")
	}
	return &System{content: content}, nil
}

// Execute appends the interpolated system message.
func (t *System) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	content := interpolateVars(t.content, sess)
	return sess.Append(session.NewMessage(session.RoleSystem, content)), nil
}

func interpolateVars(text string, sess *session.Session) string {
	return interpolate.Render(text, func(name string) (any, bool) {
		return sess.Var(name)
	})
}
