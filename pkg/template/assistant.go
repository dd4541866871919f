package template

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/validator"
)

// Assistant appends exactly one assistant message. The two construction paths
// differ in failure behavior: static content that fails its validator is
// terminal (there is nothing to regenerate), while generated content goes
// through the source's retry envelope. On success the message absorbs the
// tool calls and structured payload of the model output, and any auxiliary
// metadata is merged into the session vars.
type Assistant struct {
	static    string
	isStat    bool
	validator validator.Validator
	src       source.Source
}

// NewAssistant creates an assistant template backed by a generation source.
func NewAssistant(src *source.Generation) (*Assistant, error) {
	if src == nil {
		return nil, fmt.Errorf("assistant template requires a generation source")
	}
	return &Assistant{src: src}, nil
}

// NewAssistantSource creates an assistant template backed by an arbitrary
// content source (useful for scripted tests and replays).
func NewAssistantSource(src source.Source) (*Assistant, error) {
	if src == nil {
		return nil, fmt.Errorf("assistant template requires a content source")
	}
	return &Assistant{src: src}, nil
}

// NewAssistantStatic creates an assistant template with fixed, interpolated
// content. An optional validator is checked exactly once; a failure is
// terminal, never retried.
func NewAssistantStatic(content string, v ...validator.Validator) *Assistant {
	t := &Assistant{static: content, isStat: true}
	if len(v) > 0 {
		t.validator = v[0]
	}
	return t
}

// Execute acquires the content and appends the assistant message.
func (t *Assistant) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if t.isStat {
		content := interpolateVars(t.static, sess)
		if t.validator != nil {
			res, err := t.validator.Validate(ctx, content, sess)
			if err != nil {
				return nil, fmt.Errorf("assistant template: %w", err)
			}
			if !res.OK {
				return nil, fmt.Errorf("assistant template: %w",
					&source.ValidationError{Instruction: res.Instruction, Attempts: 1})
			}
		}
		return sess.Append(session.NewMessage(session.RoleAssistant, content)), nil
	}

	out, err := t.src.GetContent(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("assistant template: %w", err)
	}

	msg := session.Message{
		Role:       session.RoleAssistant,
		Content:    out.Content,
		Structured: out.Structured,
		ToolCalls:  out.ToolCalls,
	}
	next := sess.Append(msg)
	if len(out.Metadata) > 0 {
		next = next.MergeVars(session.NewVars(out.Metadata))
	}
	return next, nil
}
