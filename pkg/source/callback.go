package source

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Callback produces content by invoking a user function against the current
// session. The function runs once per attempt, so a non-deterministic callback
// can converge under a validator.
type Callback struct {
	fn  func(ctx context.Context, sess *session.Session) (string, error)
	cfg config
}

// NewCallback creates a source backed by a user function.
func NewCallback(fn func(ctx context.Context, sess *session.Session) (string, error), opts ...Option) *Callback {
	return &Callback{fn: fn, cfg: newConfig(opts...)}
}

// GetContent invokes the callback, gated by the retry envelope.
func (c *Callback) GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error) {
	if c.fn == nil {
		return ports.ModelOutput{}, fmt.Errorf("callback source has no function")
	}
	return c.cfg.acquire(ctx, sess, func(ctx context.Context, sess *session.Session, _ string) (ports.ModelOutput, error) {
		content, err := c.fn(ctx, sess)
		if err != nil {
			return ports.ModelOutput{}, fmt.Errorf("callback source failed: %w", err)
		}
		return Text(content), nil
	})
}
