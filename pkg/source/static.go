package source

import (
	"context"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Static always produces the same fixed value. Validation still applies, but
// since every attempt yields the identical content, more than one attempt is
// never useful.
type Static struct {
	value string
	cfg   config
}

// NewStatic creates a source producing a fixed value.
func NewStatic(value string, opts ...Option) *Static {
	return &Static{value: value, cfg: newConfig(opts...)}
}

// GetContent returns the fixed value, gated by the configured validator.
func (s *Static) GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error) {
	return s.cfg.acquire(ctx, sess, func(ctx context.Context, sess *session.Session, _ string) (ports.ModelOutput, error) {
		return Text(s.value), nil
	})
}
