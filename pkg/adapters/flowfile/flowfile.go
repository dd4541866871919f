// Package flowfile loads conversation flows from YAML documents and compiles
// them into executable templates. It lets flows be authored and edited
// without recompiling the host application.
//
// A flow file looks like:
//
//	name: interview
//	vars:
//	  topic: tides
//	steps:
//	  - system: "You are a concise interviewer."
//	  - user: "Let's talk about {{topic}}."
//	  - assistant:
//	      max_attempts: 3
//	      max_length: 300
//	  - loop:
//	      while: {var: done, equals: false}
//	      max_iterations: 10
//	      steps:
//	        - input: {prompt: "> "}
//	        - assistant: {}
package flowfile

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/template"
	"github.com/aretw0/weave/pkg/validator"
)

// Flow is the top-level document.
type Flow struct {
	Name  string         `mapstructure:"name"`
	Vars  map[string]any `mapstructure:"vars"`
	Steps []Step         `mapstructure:"-"`
}

// Step is one entry in a steps list. Exactly one field is set, keyed by the
// step kind in YAML.
type Step struct {
	System     string
	User       string
	Input      *InputStep
	Assistant  *AssistantStep
	Loop       *LoopStep
	If         *IfStep
	Subroutine *SubroutineStep
}

// InputStep reads a user message from the interactive channel.
type InputStep struct {
	Prompt string `mapstructure:"prompt"`
	Checks `mapstructure:",squash"`
}

// AssistantStep generates an assistant message.
type AssistantStep struct {
	Model       string   `mapstructure:"model"`
	Temperature *float64 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Checks      `mapstructure:",squash"`
}

// Checks is the shared validation/retry envelope for content steps.
type Checks struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	BestEffort  bool   `mapstructure:"best_effort"`
	Match       string `mapstructure:"match"`
	Contains    string `mapstructure:"contains"`
	MaxLength   int    `mapstructure:"max_length"`
	JSON        bool   `mapstructure:"json"`
}

// LoopStep repeats nested steps while the condition holds.
type LoopStep struct {
	While         Condition `mapstructure:"while"`
	MaxIterations int       `mapstructure:"max_iterations"`
	Steps         []Step    `mapstructure:"-"`
}

// IfStep branches on a condition.
type IfStep struct {
	Cond Condition `mapstructure:"cond"`
	Then []Step    `mapstructure:"-"`
	Else []Step    `mapstructure:"-"`
}

// SubroutineStep runs nested steps in a child conversation.
type SubroutineStep struct {
	Isolated bool   `mapstructure:"isolated"`
	Discard  bool   `mapstructure:"discard"`
	Steps    []Step `mapstructure:"-"`
}

// Condition tests a conversation variable.
type Condition struct {
	Var    string `mapstructure:"var"`
	Equals any    `mapstructure:"equals"`
	Empty  bool   `mapstructure:"empty"`
	Not    bool   `mapstructure:"not"`
}

// Predicate converts the condition to a template predicate.
func (c Condition) Predicate() (template.Predicate, error) {
	if c.Var == "" {
		return nil, fmt.Errorf("condition requires a var")
	}
	base := func(sess *session.Session) bool {
		v := sess.VarDefault(c.Var, nil)
		switch {
		case c.Empty:
			return v == nil || v == ""
		case c.Equals != nil:
			return fmt.Sprint(v) == fmt.Sprint(c.Equals)
		default:
			// Bare var: truthy check.
			b, ok := v.(bool)
			return ok && b
		}
	}
	if c.Not {
		return func(sess *session.Session) bool { return !base(sess) }, nil
	}
	return base, nil
}

// Compiler turns parsed flows into templates, binding them to a concrete
// generator and input provider.
type Compiler struct {
	generator ports.Generator
	input     ports.InputProvider
	logger    *slog.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithGenerator binds the backend used by assistant steps.
func WithGenerator(g ports.Generator) CompilerOption {
	return func(c *Compiler) { c.generator = g }
}

// WithInput binds the provider used by input steps.
func WithInput(p ports.InputProvider) CompilerOption {
	return func(c *Compiler) { c.input = p }
}

// WithLogger sets the logger threaded into content sources.
func WithLogger(logger *slog.Logger) CompilerOption {
	return func(c *Compiler) { c.logger = logger }
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// LoadFile parses and compiles a flow file from disk. The returned session is
// seeded with the flow's declared vars.
func (c *Compiler) LoadFile(path string) (template.Template, *session.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return c.Load(data)
}

// Load parses and compiles a YAML flow document.
func (c *Compiler) Load(data []byte) (template.Template, *session.Session, error) {
	flow, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	tmpl, err := c.Compile(flow)
	if err != nil {
		return nil, nil, err
	}

	var opts []session.Option
	if len(flow.Vars) > 0 {
		opts = append(opts, session.WithVars(session.NewVars(flow.Vars)))
	}
	return tmpl, session.New(opts...), nil
}

// Parse decodes a YAML flow document without compiling it.
func Parse(data []byte) (*Flow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid flow yaml: %w", err)
	}

	var flow Flow
	if err := mapstructure.Decode(raw, &flow); err != nil {
		return nil, fmt.Errorf("invalid flow document: %w", err)
	}

	steps, err := parseSteps(raw["steps"])
	if err != nil {
		return nil, err
	}
	flow.Steps = steps

	if len(flow.Steps) == 0 {
		return nil, fmt.Errorf("flow has no steps")
	}
	return &flow, nil
}

func parseSteps(raw any) ([]Step, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("steps must be a list, got %T", raw)
	}

	steps := make([]Step, 0, len(list))
	for i, entry := range list {
		step, err := parseStep(entry)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(entry any) (Step, error) {
	m, ok := entry.(map[string]any)
	if !ok || len(m) != 1 {
		return Step{}, fmt.Errorf("each step must be a single-key mapping")
	}

	for kind, body := range m {
		switch kind {
		case "system":
			s, ok := body.(string)
			if !ok {
				return Step{}, fmt.Errorf("system step must be a string")
			}
			return Step{System: s}, nil

		case "user":
			s, ok := body.(string)
			if !ok {
				return Step{}, fmt.Errorf("user step must be a string")
			}
			return Step{User: s}, nil

		case "input":
			var st InputStep
			if err := decodeBody(body, &st); err != nil {
				return Step{}, fmt.Errorf("input step: %w", err)
			}
			return Step{Input: &st}, nil

		case "assistant":
			var st AssistantStep
			if err := decodeBody(body, &st); err != nil {
				return Step{}, fmt.Errorf("assistant step: %w", err)
			}
			return Step{Assistant: &st}, nil

		case "loop":
			var st LoopStep
			if err := decodeBody(body, &st); err != nil {
				return Step{}, fmt.Errorf("loop step: %w", err)
			}
			nested, err := parseSteps(bodyKey(body, "steps"))
			if err != nil {
				return Step{}, fmt.Errorf("loop step: %w", err)
			}
			st.Steps = nested
			return Step{Loop: &st}, nil

		case "if":
			var st IfStep
			if err := decodeBody(body, &st); err != nil {
				return Step{}, fmt.Errorf("if step: %w", err)
			}
			then, err := parseSteps(bodyKey(body, "then"))
			if err != nil {
				return Step{}, fmt.Errorf("if step: %w", err)
			}
			els, err := parseSteps(bodyKey(body, "else"))
			if err != nil {
				return Step{}, fmt.Errorf("if step: %w", err)
			}
			st.Then, st.Else = then, els
			return Step{If: &st}, nil

		case "subroutine":
			var st SubroutineStep
			if err := decodeBody(body, &st); err != nil {
				return Step{}, fmt.Errorf("subroutine step: %w", err)
			}
			nested, err := parseSteps(bodyKey(body, "steps"))
			if err != nil {
				return Step{}, fmt.Errorf("subroutine step: %w", err)
			}
			st.Steps = nested
			return Step{Subroutine: &st}, nil

		default:
			return Step{}, fmt.Errorf("unknown step kind %q", kind)
		}
	}
	return Step{}, fmt.Errorf("empty step")
}

// decodeBody decodes a step body into its typed struct, ignoring the nested
// step lists which are parsed recursively.
func decodeBody(body any, out any) error {
	if body == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(body)
}

func bodyKey(body any, key string) any {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

// Compile turns a parsed flow into an executable template.
func (c *Compiler) Compile(flow *Flow) (template.Template, error) {
	return c.compileSteps(flow.Steps)
}

func (c *Compiler) compileSteps(steps []Step) (template.Template, error) {
	children := make([]template.Template, 0, len(steps))
	for i, step := range steps {
		tmpl, err := c.compileStep(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		children = append(children, tmpl)
	}
	return template.NewSequence(children...), nil
}

func (c *Compiler) compileStep(step Step) (template.Template, error) {
	switch {
	case step.System != "":
		return template.NewSystem(step.System)

	case step.User != "":
		return template.NewUserStatic(step.User), nil

	case step.Input != nil:
		if c.input == nil {
			return nil, fmt.Errorf("input step requires an input provider")
		}
		opts, err := c.sourceOptions(step.Input.Checks)
		if err != nil {
			return nil, err
		}
		return template.NewUser(source.NewInput(c.input, step.Input.Prompt, opts...))

	case step.Assistant != nil:
		if c.generator == nil {
			return nil, fmt.Errorf("assistant step requires a generator")
		}
		opts, err := c.sourceOptions(step.Assistant.Checks)
		if err != nil {
			return nil, err
		}
		gen := source.NewGeneration(c.generator, opts...)
		if step.Assistant.Model != "" {
			gen = gen.WithModel(step.Assistant.Model)
		}
		if step.Assistant.Temperature != nil {
			gen = gen.WithTemperature(*step.Assistant.Temperature)
		}
		if step.Assistant.MaxTokens > 0 {
			gen = gen.WithMaxTokens(step.Assistant.MaxTokens)
		}
		return template.NewAssistant(gen)

	case step.Loop != nil:
		pred, err := step.Loop.While.Predicate()
		if err != nil {
			return nil, err
		}
		body, err := c.compileSteps(step.Loop.Steps)
		if err != nil {
			return nil, err
		}
		var opts []template.LoopOption
		if step.Loop.MaxIterations > 0 {
			opts = append(opts, template.WithMaxIterations(step.Loop.MaxIterations))
		}
		return template.NewLoop(body, pred, opts...)

	case step.If != nil:
		pred, err := step.If.Cond.Predicate()
		if err != nil {
			return nil, err
		}
		then, err := c.compileSteps(step.If.Then)
		if err != nil {
			return nil, err
		}
		if len(step.If.Else) == 0 {
			return template.NewIf(pred, then), nil
		}
		els, err := c.compileSteps(step.If.Else)
		if err != nil {
			return nil, err
		}
		return template.NewIfElse(pred, then, els), nil

	case step.Subroutine != nil:
		body, err := c.compileSteps(step.Subroutine.Steps)
		if err != nil {
			return nil, err
		}
		var opts []template.SubroutineOption
		if step.Subroutine.Isolated {
			opts = append(opts, template.WithIsolatedContext())
		}
		if step.Subroutine.Discard {
			opts = append(opts, template.WithoutMessages())
		}
		return template.NewSubroutine(body, opts...)

	default:
		return nil, fmt.Errorf("step has no recognized kind")
	}
}

func (c *Compiler) sourceOptions(checks Checks) ([]source.Option, error) {
	opts := []source.Option{source.WithLogger(c.logger)}
	if checks.MaxAttempts > 0 {
		opts = append(opts, source.WithMaxAttempts(checks.MaxAttempts))
	}
	if checks.BestEffort {
		opts = append(opts, source.WithBestEffort())
	}

	var checksList []validator.Validator
	if checks.Match != "" {
		// The pattern is flow-file input; a typo must not panic the compiler.
		match, err := validator.MatchRegexpErr(checks.Match)
		if err != nil {
			return nil, err
		}
		checksList = append(checksList, match)
	}
	if checks.Contains != "" {
		checksList = append(checksList, validator.Contains(checks.Contains))
	}
	if checks.MaxLength > 0 {
		checksList = append(checksList, validator.MaxLength(checks.MaxLength))
	}
	if checks.JSON {
		checksList = append(checksList, validator.JSONObject())
	}
	switch len(checksList) {
	case 0:
	case 1:
		opts = append(opts, source.WithValidator(checksList[0]))
	default:
		opts = append(opts, source.WithValidator(validator.All(checksList...)))
	}
	return opts, nil
}
