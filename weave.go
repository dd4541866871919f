package weave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/observability"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/template"
)

// Version is the library version, surfaced by the CLI.
const Version = "0.1.0"

// Agent is the high-level entry point for the Weave library. It accumulates
// conversation steps through a fluent interface and compiles them into a
// single executable Template.
//
// Agent methods that add steps return the receiver, so calls chain:
//
//	agent := weave.NewAgent("helper", weave.WithGenerator(gen)).
//		System("You are concise.").
//		User("Summarize: {{text}}").
//		Assistant()
//
// Construction errors (empty system prompt, missing generator) are deferred
// and surfaced by Build or Execute, keeping the chain unbroken.
type Agent struct {
	name  string
	steps []template.Template
	err   error

	generator ports.Generator
	input     ports.InputProvider
	observer  session.Observer
	logger    *slog.Logger
	hooks     observability.Hooks
	governor  *source.Governor
	vars      map[string]any
	print     bool
}

// AgentOption configures an Agent at construction time.
type AgentOption func(*Agent)

// WithGenerator wires the backend used by Assistant steps.
func WithGenerator(g ports.Generator) AgentOption {
	return func(a *Agent) { a.generator = g }
}

// WithInput wires the provider used by UserInput steps.
func WithInput(p ports.InputProvider) AgentOption {
	return func(a *Agent) { a.input = p }
}

// WithObserver sets the observer attached to sessions the agent creates.
func WithObserver(o session.Observer) AgentOption {
	return func(a *Agent) { a.observer = o }
}

// WithLogger sets a structured logger for retry and generation diagnostics.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = logger }
}

// WithPrint controls whether sessions created by the agent echo appended
// messages. Defaults to false.
func WithPrint(print bool) AgentOption {
	return func(a *Agent) { a.print = print }
}

// WithVars seeds initial variables on sessions the agent creates.
func WithVars(vars map[string]any) AgentOption {
	return func(a *Agent) {
		if a.vars == nil {
			a.vars = make(map[string]any, len(vars))
		}
		for k, v := range vars {
			a.vars[k] = v
		}
	}
}

// WithGovernor caps the total backend calls made by the agent's Assistant
// steps. The same governor instance may be shared across agents.
func WithGovernor(g *source.Governor) AgentOption {
	return func(a *Agent) { a.governor = g }
}

// WithHooks registers observability callbacks fired around each step.
func WithHooks(hooks observability.Hooks) AgentOption {
	return func(a *Agent) { a.hooks = a.hooks.Merge(hooks) }
}

// NewAgent creates an empty agent. The name labels log records and
// observability events.
func NewAgent(name string, opts ...AgentOption) *Agent {
	a := &Agent{name: name}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	a.logger = a.logger.With("agent", name)
	return a
}

// fail records the first construction error; later steps become no-ops.
func (a *Agent) fail(err error) *Agent {
	if a.err == nil {
		a.err = err
	}
	return a
}

// add appends a step wrapped with the agent's observability hooks.
func (a *Agent) add(name string, tmpl template.Template) *Agent {
	if a.err != nil {
		return a
	}
	a.steps = append(a.steps, observability.Instrument(name, tmpl, a.hooks))
	return a
}

// System adds a system prompt. It must be the first message-producing step;
// session validation rejects transcripts where it is not.
func (a *Agent) System(content string) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewSystem(content)
	if err != nil {
		return a.fail(fmt.Errorf("system step: %w", err))
	}
	return a.add("system", tmpl)
}

// User adds a static user message. Content is interpolated against session
// variables at execution time.
func (a *Agent) User(content string) *Agent {
	return a.add("user", template.NewUserStatic(content))
}

// UserInput adds a user message read from the agent's input provider.
// Validation options apply to the read content; on retry the provider is
// re-prompted with the validator's instruction.
func (a *Agent) UserInput(prompt string, opts ...source.Option) *Agent {
	if a.err != nil {
		return a
	}
	if a.input == nil {
		return a.fail(errors.New("user input step: agent has no input provider"))
	}
	opts = append(a.sourceDefaults(), opts...)
	return a.UserSource(source.NewInput(a.input, prompt, opts...))
}

// UserSource adds a user message produced by an arbitrary source.
func (a *Agent) UserSource(src source.Source) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewUser(src)
	if err != nil {
		return a.fail(fmt.Errorf("user step: %w", err))
	}
	return a.add("user", tmpl)
}

// Assistant adds a model-generated assistant turn. Options configure
// validation, retries, and generation parameters.
func (a *Agent) Assistant(opts ...source.Option) *Agent {
	if a.err != nil {
		return a
	}
	if a.generator == nil {
		return a.fail(errors.New("assistant step: agent has no generator"))
	}
	opts = append(a.sourceDefaults(), opts...)
	gen := source.NewGeneration(a.instrumentedGenerator(), opts...).WithGovernor(a.governor)
	tmpl, err := template.NewAssistant(gen)
	if err != nil {
		return a.fail(fmt.Errorf("assistant step: %w", err))
	}
	return a.add("assistant", tmpl)
}

// AssistantStatic adds a fixed assistant message, useful for few-shot
// examples. Validators run once; failure is terminal.
func (a *Agent) AssistantStatic(content string) *Agent {
	return a.add("assistant", template.NewAssistantStatic(content))
}

// AssistantSource adds an assistant message produced by an arbitrary source.
func (a *Agent) AssistantSource(src source.Source) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewAssistantSource(src)
	if err != nil {
		return a.fail(fmt.Errorf("assistant step: %w", err))
	}
	return a.add("assistant", tmpl)
}

// Transform adds one or more session transformations applied in order.
func (a *Agent) Transform(fns ...template.TransformFunc) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewTransform(fns...)
	if err != nil {
		return a.fail(fmt.Errorf("transform step: %w", err))
	}
	return a.add("transform", tmpl)
}

// If adds a conditional branch executed only when cond is true.
func (a *Agent) If(cond template.Predicate, then template.Template) *Agent {
	return a.add("if", template.NewIf(cond, then))
}

// IfElse adds a two-way conditional branch.
func (a *Agent) IfElse(cond template.Predicate, then, els template.Template) *Agent {
	return a.add("if", template.NewIfElse(cond, then, els))
}

// Loop repeats body while cond returns true, bounded by the loop's max
// iteration cap.
func (a *Agent) Loop(body template.Template, cond template.Predicate, opts ...template.LoopOption) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewLoop(body, cond, opts...)
	if err != nil {
		return a.fail(fmt.Errorf("loop step: %w", err))
	}
	return a.add("loop", tmpl)
}

// Subroutine runs body against a derived child session and folds the result
// back into the parent.
func (a *Agent) Subroutine(body template.Template, opts ...template.SubroutineOption) *Agent {
	if a.err != nil {
		return a
	}
	tmpl, err := template.NewSubroutine(body, opts...)
	if err != nil {
		return a.fail(fmt.Errorf("subroutine step: %w", err))
	}
	return a.add("subroutine", tmpl)
}

// Step adds an arbitrary template.
func (a *Agent) Step(tmpl template.Template) *Agent {
	return a.add("step", tmpl)
}

// Sub returns a fresh agent sharing this agent's wiring (generator, input,
// observer, logger, governor, hooks) but with no steps. Use it to build
// bodies for Loop and Subroutine without re-threading configuration:
//
//	body := agent.Sub().UserInput("> ").Assistant()
//	agent.Loop(body.Must(), keepGoing)
func (a *Agent) Sub() *Agent {
	sub := *a
	sub.steps = nil
	sub.err = nil
	return &sub
}

// Build compiles the accumulated steps into a single Template, or reports
// the first construction error.
func (a *Agent) Build() (template.Template, error) {
	if a.err != nil {
		return nil, a.err
	}
	return template.NewSequence(a.steps...), nil
}

// Must is Build for known-good chains; it panics on construction errors.
// Intended for package-level wiring and subagent bodies.
func (a *Agent) Must() template.Template {
	tmpl, err := a.Build()
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Execute builds the agent and runs it against sess. A nil session starts a
// fresh conversation honoring the agent's vars, print, and observer options.
func (a *Agent) Execute(ctx context.Context, sess *session.Session) (*session.Session, error) {
	tmpl, err := a.Build()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = a.NewSession()
	}
	return tmpl.Execute(ctx, sess)
}

// NewSession creates a session wired with the agent's configured vars,
// print mode, and observer.
func (a *Agent) NewSession() *Session {
	opts := []session.Option{session.WithPrint(a.print)}
	if len(a.vars) > 0 {
		opts = append(opts, session.WithVars(session.NewVars(a.vars)))
	}
	if obs := a.sessionObserver(); obs != nil {
		opts = append(opts, session.WithObserver(obs))
	}
	return session.New(opts...)
}

func (a *Agent) sessionObserver() session.Observer {
	return a.hooks.Observer(a.observer)
}

func (a *Agent) instrumentedGenerator() ports.Generator {
	return observability.InstrumentGenerator(a.generator, a.hooks)
}

// sourceDefaults are the base options every built-in source step starts from.
// Caller options come afterwards and win.
func (a *Agent) sourceDefaults() []source.Option {
	opts := []source.Option{source.WithLogger(a.logger)}
	if a.hooks.OnValidationFailure != nil {
		opts = append(opts, source.WithFailureHook(a.hooks.OnValidationFailure))
	}
	return opts
}

// Session re-exports the session type so simple consumers only import weave.
type Session = session.Session

// NewSession creates a standalone session. See package session for options.
func NewSession(opts ...session.Option) *Session {
	return session.New(opts...)
}
