package source

import "fmt"

// ValidationError reports content that failed its validator after exhausting
// every attempt. Instruction is the last correction hint the validator gave.
type ValidationError struct {
	Instruction string
	Attempts    int
}

func (e *ValidationError) Error() string {
	if e.Instruction == "" {
		return fmt.Sprintf("content failed validation after %d attempt(s)", e.Attempts)
	}
	return fmt.Sprintf("content failed validation after %d attempt(s): %s", e.Attempts, e.Instruction)
}

// ExhaustionError reports a list source that ran out of items.
type ExhaustionError struct {
	Items int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("list source exhausted after %d item(s)", e.Items)
}

// GovernorError reports a generation source that exceeded its call ceiling.
// This is a development guard against runaway loops and is always fatal.
type GovernorError struct {
	Limit int
	Calls int
}

func (e *GovernorError) Error() string {
	return fmt.Sprintf("generation call ceiling exceeded: %d call(s) against a limit of %d (runaway loop?)", e.Calls, e.Limit)
}
