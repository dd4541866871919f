package ports

import (
	"context"

	"github.com/aretw0/weave/pkg/session"
)

// ModelOutput is the result shape returned by a generation collaborator.
// Content is the assistant text; the remaining fields are optional extras that
// the engine absorbs into the resulting message and session vars.
type ModelOutput struct {
	Content    string             `json:"content"`
	ToolCalls  []session.ToolCall `json:"tool_calls,omitempty"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
	Structured map[string]any     `json:"structured,omitempty"`
}

// GenerateOptions carries backend-agnostic generation parameters. Adapters map
// these onto whatever their wire protocol expects; unknown concerns go through
// Extra.
type GenerateOptions struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	Stop        []string
	Extra       map[string]any
}

// Generator is the model API boundary. Implementations perform the actual
// call against a backend and return an assistant-shaped output or an error.
// The engine treats any error as a generation failure and never retries here;
// retry policy lives in the content-source envelope.
type Generator interface {
	Generate(ctx context.Context, sess *session.Session, opts GenerateOptions) (ModelOutput, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, sess *session.Session, opts GenerateOptions) (ModelOutput, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, sess *session.Session, opts GenerateOptions) (ModelOutput, error) {
	return f(ctx, sess, opts)
}
