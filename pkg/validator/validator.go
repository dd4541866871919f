package validator

import (
	"context"
	"strings"

	"github.com/aretw0/weave/pkg/session"
)

// Result is the outcome of validating a piece of content. When OK is false,
// Instruction carries a human-readable correction hint that retry loops may
// surface to the producer of the next attempt.
type Result struct {
	OK          bool
	Instruction string
}

// Pass returns a passing result.
func Pass() Result {
	return Result{OK: true}
}

// Fail returns a failing result with a correction instruction.
func Fail(instruction string) Result {
	return Result{OK: false, Instruction: instruction}
}

// Validator is a stateless pass/fail rule over produced content. The session
// is provided for rules that depend on conversation state. The error return is
// reserved for rule evaluation failures (it does not mean "invalid content").
type Validator interface {
	Validate(ctx context.Context, content string, sess *session.Session) (Result, error)
}

// Func adapts a function to the Validator interface.
type Func func(ctx context.Context, content string, sess *session.Session) (Result, error)

// Validate calls f.
func (f Func) Validate(ctx context.Context, content string, sess *session.Session) (Result, error) {
	return f(ctx, content, sess)
}

type allValidator struct {
	children []Validator
}

// All combines validators with AND logic: every child must pass. Evaluation
// short-circuits on the first failure; the failing instruction is returned
// as-is so the caller gets the most specific correction first.
func All(children ...Validator) Validator {
	return &allValidator{children: children}
}

func (v *allValidator) Validate(ctx context.Context, content string, sess *session.Session) (Result, error) {
	for _, child := range v.children {
		res, err := child.Validate(ctx, content, sess)
		if err != nil {
			return Result{}, err
		}
		if !res.OK {
			return res, nil
		}
	}
	return Pass(), nil
}

type anyValidator struct {
	children []Validator
}

// Any combines validators with OR logic: one passing child suffices.
// Evaluation short-circuits on the first pass; when every child fails, the
// instructions are concatenated so the producer sees all acceptable routes.
func Any(children ...Validator) Validator {
	return &anyValidator{children: children}
}

func (v *anyValidator) Validate(ctx context.Context, content string, sess *session.Session) (Result, error) {
	var instructions []string
	for _, child := range v.children {
		res, err := child.Validate(ctx, content, sess)
		if err != nil {
			return Result{}, err
		}
		if res.OK {
			return Pass(), nil
		}
		if res.Instruction != "" {
			instructions = append(instructions, res.Instruction)
		}
	}
	return Fail(strings.Join(instructions, "; ")), nil
}
