package source

import (
	"context"
	"log/slog"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/validator"
)

// DefaultMaxAttempts is the attempt budget when none is configured.
const DefaultMaxAttempts = 1

// Source produces content for a template given the current session. The
// result is always a ModelOutput; plain-string producers fill only Content.
//
// Every built-in source runs its producer inside the shared retry envelope:
// acquire, validate, retry while attempts remain, then either fail with a
// *ValidationError or hand back the last (invalid) content, per configuration.
type Source interface {
	GetContent(ctx context.Context, sess *session.Session) (ports.ModelOutput, error)
}

// config is the shared retry/validation envelope configuration.
type config struct {
	maxAttempts int
	validator   validator.Validator
	raiseError  bool
	logger      *slog.Logger
	onFailure   func(instruction string, attempt int)
	cycle       bool // list sources only
}

// Option configures a source's retry envelope.
type Option func(*config)

// WithMaxAttempts sets the attempt budget (minimum 1).
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithValidator gates every produced value through v.
func WithValidator(v validator.Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithBestEffort disables the terminal ValidationError: once attempts are
// exhausted, the last (invalid) content is returned as a best-effort result
// and a warning is logged instead. Callers can only tell the difference by
// inspecting the content.
func WithBestEffort() Option {
	return func(c *config) {
		c.raiseError = false
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithFailureHook registers a callback invoked on every failed validation
// attempt. Used by observability wiring.
func WithFailureHook(fn func(instruction string, attempt int)) Option {
	return func(c *config) {
		c.onFailure = fn
	}
}

func newConfig(opts ...Option) config {
	c := config{
		maxAttempts: DefaultMaxAttempts,
		raiseError:  true,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// producer acquires one candidate output. instruction carries the previous
// attempt's correction hint ("" on the first attempt); producers that talk to
// a model may surface it as guidance for the regenerated response.
type producer func(ctx context.Context, sess *session.Session, instruction string) (ports.ModelOutput, error)

// acquire runs the shared retry envelope around produce.
//
// Retries are local to this call and invisible to the calling template: no
// transcript messages are emitted for failed attempts, and the instruction is
// only ever handed to the next produce call.
func (c *config) acquire(ctx context.Context, sess *session.Session, produce producer) (ports.ModelOutput, error) {
	var (
		last        ports.ModelOutput
		instruction string
	)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		out, err := produce(ctx, sess, instruction)
		if err != nil {
			return ports.ModelOutput{}, err
		}
		last = out

		if c.validator == nil {
			return out, nil
		}

		res, err := c.validator.Validate(ctx, out.Content, sess)
		if err != nil {
			return ports.ModelOutput{}, err
		}
		if res.OK {
			return out, nil
		}

		instruction = res.Instruction
		if c.onFailure != nil {
			c.onFailure(instruction, attempt)
		}
		c.logger.Warn("content failed validation",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"instruction", instruction,
		)
	}

	if c.raiseError {
		return ports.ModelOutput{}, &ValidationError{Instruction: instruction, Attempts: c.maxAttempts}
	}

	c.logger.Warn("returning best-effort invalid content after exhausting attempts",
		"attempts", c.maxAttempts,
		"instruction", instruction,
	)
	return last, nil
}

// Text wraps a plain string in a ModelOutput.
func Text(content string) ports.ModelOutput {
	return ports.ModelOutput{Content: content}
}
