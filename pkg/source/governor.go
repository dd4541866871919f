package source

import "sync"

// DefaultCallLimit is the governor ceiling when none is configured.
const DefaultCallLimit = 100

// Governor is a call-count ceiling for generation sources, meant to catch
// runaway loops during development. It is shared by reference: every clone
// derived from a generation source keeps pointing at the same counter, so
// chained reconfiguration does not reset the budget.
//
// A nil *Governor enforces nothing. The count limit is not a time limit; a
// call that never returns is outside its reach.
type Governor struct {
	mu    sync.Mutex
	limit int
	calls int
}

// NewGovernor creates an active governor with the given ceiling.
// A non-positive limit falls back to DefaultCallLimit.
func NewGovernor(limit int) *Governor {
	if limit <= 0 {
		limit = DefaultCallLimit
	}
	return &Governor{limit: limit}
}

// Take accounts for one generation call. It fails with a *GovernorError once
// the ceiling is exceeded.
func (g *Governor) Take() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.calls > g.limit {
		return &GovernorError{Limit: g.limit, Calls: g.calls}
	}
	return nil
}

// Calls returns the number of calls accounted so far.
func (g *Governor) Calls() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Reset zeroes the counter. Intended for test isolation only.
func (g *Governor) Reset() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = 0
}
