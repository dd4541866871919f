// Package scripted provides deterministic Generator and InputProvider
// implementations backed by canned replies. They are intended for tests,
// examples, and dry-running conversation flows without a model backend.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Generator replays a fixed list of model outputs in order.
// Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	outputs []ports.ModelOutput
	cursor  int
	loop    bool
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLoop restarts from the first reply once the script is exhausted.
func WithLoop() GeneratorOption {
	return func(g *Generator) { g.loop = true }
}

// NewGenerator creates a generator that replays outputs in order.
func NewGenerator(outputs []ports.ModelOutput, opts ...GeneratorOption) *Generator {
	g := &Generator{outputs: append([]ports.ModelOutput(nil), outputs...)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewTextGenerator creates a generator from plain text replies.
func NewTextGenerator(replies ...string) *Generator {
	outputs := make([]ports.ModelOutput, len(replies))
	for i, r := range replies {
		outputs[i] = ports.ModelOutput{Content: r}
	}
	return NewGenerator(outputs)
}

// Generate returns the next scripted output. Once the script runs out it
// returns an error, unless the generator loops.
func (g *Generator) Generate(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cursor >= len(g.outputs) {
		if !g.loop || len(g.outputs) == 0 {
			return ports.ModelOutput{}, fmt.Errorf("scripted generator exhausted after %d replies", len(g.outputs))
		}
		g.cursor = 0
	}
	out := g.outputs[g.cursor]
	g.cursor++
	return out, nil
}

// Remaining reports how many scripted replies are left.
func (g *Generator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.outputs) - g.cursor
}

// Input replays a fixed list of user lines in order.
// Safe for concurrent use.
type Input struct {
	mu     sync.Mutex
	lines  []string
	cursor int
}

// NewInput creates an input provider that replays lines in order.
func NewInput(lines ...string) *Input {
	return &Input{lines: append([]string(nil), lines...)}
}

// ReadLine returns the next scripted line, ignoring the prompt.
func (i *Input) ReadLine(ctx context.Context, prompt string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cursor >= len(i.lines) {
		return "", fmt.Errorf("scripted input exhausted after %d lines", len(i.lines))
	}
	line := i.lines[i.cursor]
	i.cursor++
	return line, nil
}
