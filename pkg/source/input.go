package source

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Input reads a line from an interactive channel. On a retry the validator's
// instruction replaces the prompt, so the person typing sees what to fix.
type Input struct {
	provider ports.InputProvider
	prompt   string
	cfg      config
}

// NewInput creates a source that prompts the given provider for a line.
func NewInput(provider ports.InputProvider, prompt string, opts ...Option) *Input {
	return &Input{provider: provider, prompt: prompt, cfg: newConfig(opts...)}
}

// GetContent reads one line, gated by the retry envelope.
func (i *Input) GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error) {
	if i.provider == nil {
		return ports.ModelOutput{}, fmt.Errorf("input source has no provider")
	}
	return i.cfg.acquire(ctx, sess, func(ctx context.Context, sess *session.Session, instruction string) (ports.ModelOutput, error) {
		prompt := i.prompt
		if instruction != "" {
			prompt = instruction + " "
		}
		line, err := i.provider.ReadLine(ctx, prompt)
		if err != nil {
			return ports.ModelOutput{}, fmt.Errorf("failed to read input: %w", err)
		}
		return Text(line), nil
	})
}
