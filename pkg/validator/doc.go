/*
Package validator defines pass/fail rules over produced content.

A Validator inspects a candidate string (and optionally the current session)
and returns a Result: pass, or fail with a human-readable correction
instruction. Retry loops in pkg/source surface that instruction to the next
attempt.

Validators compose with All (every rule must pass) and Any (one passing rule
suffices). Both short-circuit on the first definitive outcome for their logic.
*/
package validator
