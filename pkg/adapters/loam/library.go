// Package loam adapts a Loam document repository into a prompt library.
// Prompts live as markdown files with YAML frontmatter; the body is the
// prompt text and the frontmatter declares its role and validation envelope.
//
// A prompt file looks like:
//
//	---
//	role: system
//	description: Persona for the support bot.
//	---
//	You are a patient support agent for {{product}}.
package loam

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/template"
	"github.com/aretw0/weave/pkg/validator"
)

// PromptMetadata is the frontmatter schema for a prompt document.
type PromptMetadata struct {
	// Role decides what kind of template the prompt compiles to:
	// "system", "user", or "assistant". Defaults to "user".
	Role        string `json:"role" mapstructure:"role"`
	Description string `json:"description" mapstructure:"description"`

	// Validation envelope for assistant prompts.
	MaxAttempts int    `json:"max_attempts" mapstructure:"max_attempts"`
	Match       string `json:"match" mapstructure:"match"`
	Contains    string `json:"contains" mapstructure:"contains"`
	MaxLength   int    `json:"max_length" mapstructure:"max_length"`
}

// Prompt is a resolved prompt document.
type Prompt struct {
	ID      string
	Content string
	Meta    PromptMetadata
}

// Library reads prompts from a Loam repository.
type Library struct {
	repo      *loam.TypedRepository[PromptMetadata]
	generator ports.Generator
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithGenerator binds the backend used when an assistant prompt is compiled
// to a template.
func WithGenerator(g ports.Generator) LibraryOption {
	return func(l *Library) { l.generator = g }
}

// WithLogger sets the logger threaded into compiled sources.
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(l *Library) { l.logger = logger }
}

// Open initializes a Library over a Loam repository at path. Strict mode
// keeps frontmatter numerics unambiguous and ReadOnly avoids Loam's dev-mode
// sandbox; the library never writes prompts.
func Open(path string, opts ...LibraryOption) (*Library, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt library path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return NewFromRepository(loam.NewTypedRepository[PromptMetadata](repo), opts...), nil
}

// NewFromRepository creates a Library from an existing typed repository.
func NewFromRepository(repo *loam.TypedRepository[PromptMetadata], opts ...LibraryOption) *Library {
	l := &Library{repo: repo}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.NewNop()
	}
	return l
}

// Get retrieves a prompt by ID.
func (l *Library) Get(ctx context.Context, id string) (Prompt, error) {
	doc, err := l.repo.Get(ctx, id)
	if err != nil {
		return Prompt{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return Prompt{
		ID:      trimExtension(doc.ID),
		Content: strings.TrimSpace(doc.Content),
		Meta:    doc.Data,
	}, nil
}

// List returns the IDs of all prompts in the library.
func (l *Library) List(ctx context.Context) ([]string, error) {
	docs, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, trimExtension(doc.ID))
	}
	return ids, nil
}

// Template compiles the prompt into an executable template according to its
// declared role.
func (l *Library) Template(ctx context.Context, id string) (template.Template, error) {
	prompt, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.compile(prompt)
}

func (l *Library) compile(prompt Prompt) (template.Template, error) {
	role := prompt.Meta.Role
	if role == "" {
		role = string(session.RoleUser)
	}

	switch session.Role(role) {
	case session.RoleSystem:
		return template.NewSystem(prompt.Content)

	case session.RoleUser:
		return template.NewUserStatic(prompt.Content), nil

	case session.RoleAssistant:
		if l.generator == nil {
			return nil, fmt.Errorf("prompt %s: assistant prompts require a generator", prompt.ID)
		}
		opts := []source.Option{source.WithLogger(l.logger)}
		if prompt.Meta.MaxAttempts > 0 {
			opts = append(opts, source.WithMaxAttempts(prompt.Meta.MaxAttempts))
		}
		v, err := prompt.checks()
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", prompt.ID, err)
		}
		if v != nil {
			opts = append(opts, source.WithValidator(v))
		}
		// The prompt body becomes the user turn that precedes the generation.
		gen, err := template.NewAssistant(source.NewGeneration(l.generator, opts...))
		if err != nil {
			return nil, err
		}
		return template.NewSequence(template.NewUserStatic(prompt.Content), gen), nil

	default:
		return nil, fmt.Errorf("prompt %s: unsupported role %q", prompt.ID, role)
	}
}

func (p Prompt) checks() (validator.Validator, error) {
	var checks []validator.Validator
	if p.Meta.Match != "" {
		// Frontmatter input; report a bad pattern instead of panicking.
		match, err := validator.MatchRegexpErr(p.Meta.Match)
		if err != nil {
			return nil, err
		}
		checks = append(checks, match)
	}
	if p.Meta.Contains != "" {
		checks = append(checks, validator.Contains(p.Meta.Contains))
	}
	if p.Meta.MaxLength > 0 {
		checks = append(checks, validator.MaxLength(p.Meta.MaxLength))
	}
	switch len(checks) {
	case 0:
		return nil, nil
	case 1:
		return checks[0], nil
	default:
		return validator.All(checks...), nil
	}
}

// Watch reports prompt IDs as their files change on disk.
func (l *Library) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
