package observability

import (
	"context"
	"time"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/template"
)

// TemplateEvent describes the execution of a single template node.
type TemplateEvent struct {
	Name     string
	Err      error
	Duration time.Duration
}

// GenerateEvent describes one call to the generation backend.
type GenerateEvent struct {
	Model    string
	Err      error
	Duration time.Duration
}

// Hooks defines callbacks for engine observability. Nil fields are skipped.
type Hooks struct {
	OnTemplateStart     func(ctx context.Context, name string)
	OnTemplateEnd       func(ctx context.Context, ev *TemplateEvent)
	OnMessage           func(msg session.Message)
	OnGenerate          func(ctx context.Context, ev *GenerateEvent)
	OnValidationFailure func(instruction string, attempt int)
}

// Merge combines two hook sets; both halves fire.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnTemplateStart:     mergeFns2(h.OnTemplateStart, other.OnTemplateStart),
		OnTemplateEnd:       mergeFns2(h.OnTemplateEnd, other.OnTemplateEnd),
		OnMessage:           mergeFns1(h.OnMessage, other.OnMessage),
		OnGenerate:          mergeFns2(h.OnGenerate, other.OnGenerate),
		OnValidationFailure: mergeFns2(h.OnValidationFailure, other.OnValidationFailure),
	}
}

func mergeFns1[T any](a, b func(T)) func(T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(v T) { a(v); b(v) }
}

func mergeFns2[A, B any](a, b func(A, B)) func(A, B) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(x A, y B) { a(x, y); b(x, y) }
}

// Instrument wraps a template so the hooks see its start, end, and duration.
func Instrument(name string, tmpl template.Template, hooks Hooks) template.Template {
	if hooks.OnTemplateStart == nil && hooks.OnTemplateEnd == nil {
		return tmpl
	}
	return template.Func(func(ctx context.Context, sess *session.Session) (*session.Session, error) {
		if hooks.OnTemplateStart != nil {
			hooks.OnTemplateStart(ctx, name)
		}
		start := time.Now()
		next, err := tmpl.Execute(ctx, sess)
		if hooks.OnTemplateEnd != nil {
			hooks.OnTemplateEnd(ctx, &TemplateEvent{
				Name:     name,
				Err:      err,
				Duration: time.Since(start),
			})
		}
		return next, err
	})
}

// InstrumentGenerator wraps a generator so the hooks see every backend call.
func InstrumentGenerator(gen ports.Generator, hooks Hooks) ports.Generator {
	if hooks.OnGenerate == nil {
		return gen
	}
	return ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		start := time.Now()
		out, err := gen.Generate(ctx, sess, opts)
		hooks.OnGenerate(ctx, &GenerateEvent{
			Model:    opts.Model,
			Err:      err,
			Duration: time.Since(start),
		})
		return out, err
	})
}

// Observer adapts the OnMessage hook to the session.Observer interface,
// chaining to next when set.
func (h Hooks) Observer(next session.Observer) session.Observer {
	if h.OnMessage == nil {
		return next
	}
	return session.ObserverFunc(func(msg session.Message) {
		h.OnMessage(msg)
		if next != nil {
			next.ObserveMessage(msg)
		}
	})
}
