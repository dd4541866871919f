/*
Package weave is a template engine for structuring conversations with large
language models. It separates the conversation structure (Templates) from the
conversation state (Session) and from the model backend (Generator), so the
same flow can run against any provider, a script, or a test double.

# Concept

Weave treats a conversation as a tree of templates. Primitive templates add a
single message (System, User, Assistant); composite templates sequence,
repeat, or nest other templates (Sequence, Loop, Subroutine). Executing a
template against an immutable Session yields a new Session; the input is
never mutated, which makes retries, branching, and concurrent flows safe.

# Key Features

  - Immutable state: every operation derives a new Session, so any
    intermediate state can be kept, compared, or re-executed.
  - Validation with retries: content sources carry validators; on failure the
    producer is re-invoked with the validator's corrective instruction.
  - Cost control: a Governor caps total backend calls across an entire flow.
  - Hexagonal architecture: generators, input providers, and session stores
    are ports with in-memory, file, and Redis adapters.

# Usage

The Agent builder is the high-level entry point:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/weave"
		"github.com/aretw0/weave/pkg/source"
		"github.com/aretw0/weave/pkg/validator"
	)

	func main() {
		agent := weave.NewAgent("haiku-bot",
			weave.WithGenerator(myBackend),
			weave.WithVars(map[string]any{"topic": "tides"}),
		).
			System("You are a poet. Reply with a single haiku.").
			User("Write a haiku about {{topic}}.").
			Assistant(
				source.WithValidator(validator.MaxLength(120)),
				source.WithMaxAttempts(3),
			)

		sess, err := agent.Execute(context.Background(), nil)
		if err != nil {
			log.Fatal(err)
		}
		if last, ok := sess.LastMessage(); ok {
			fmt.Println(last.Content)
		}
	}

Lower-level composition lives in pkg/template, content production in
pkg/source, validation in pkg/validator, and state in pkg/session.
*/
package weave
