package source

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Generation delegates content production to a model backend through
// ports.Generator, inside the shared retry envelope. On a retry the
// validator's instruction is appended as a user turn to a throwaway copy of
// the session, so the backend sees the correction without it ever appearing
// in the real transcript.
//
// Clones created through the With* chain share the governor by reference, so
// reconfiguring the model does not reset the call budget.
type Generation struct {
	gen      ports.Generator
	opts     ports.GenerateOptions
	governor *Governor
	cfg      config
}

// NewGeneration creates a generation source for the given backend.
func NewGeneration(gen ports.Generator, opts ...Option) *Generation {
	return &Generation{gen: gen, cfg: newConfig(opts...)}
}

// WithGovernor attaches a shared call-count governor. Pass nil to disable
// accounting (the default).
func (g *Generation) WithGovernor(gov *Governor) *Generation {
	next := g.clone()
	next.governor = gov
	return next
}

// WithOptions replaces the generation parameters.
func (g *Generation) WithOptions(opts ports.GenerateOptions) *Generation {
	next := g.clone()
	next.opts = opts
	return next
}

// WithModel returns a clone targeting a different model.
func (g *Generation) WithModel(model string) *Generation {
	next := g.clone()
	next.opts.Model = model
	return next
}

// WithTemperature returns a clone with the sampling temperature set.
func (g *Generation) WithTemperature(t float64) *Generation {
	next := g.clone()
	next.opts.Temperature = &t
	return next
}

// WithMaxTokens returns a clone with the completion budget set.
func (g *Generation) WithMaxTokens(n int) *Generation {
	next := g.clone()
	next.opts.MaxTokens = n
	return next
}

// clone copies the source. The governor pointer is shared deliberately.
func (g *Generation) clone() *Generation {
	next := *g
	return &next
}

// Options returns the current generation parameters.
func (g *Generation) Options() ports.GenerateOptions {
	return g.opts
}

// GetContent calls the backend, gated by the governor and the retry envelope.
func (g *Generation) GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error) {
	if g.gen == nil {
		return ports.ModelOutput{}, fmt.Errorf("generation source has no backend")
	}
	return g.cfg.acquire(ctx, sess, func(ctx context.Context, sess *session.Session, instruction string) (ports.ModelOutput, error) {
		if err := g.governor.Take(); err != nil {
			return ports.ModelOutput{}, err
		}

		target := sess
		if instruction != "" {
			target = sess.WithPrint(false).Append(session.NewMessage(session.RoleUser, instruction))
		}

		out, err := g.gen.Generate(ctx, target, g.opts)
		if err != nil {
			return ports.ModelOutput{}, fmt.Errorf("generation failed: %w", err)
		}
		return out, nil
	})
}
