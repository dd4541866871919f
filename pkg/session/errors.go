package session

import "errors"

// ErrNotFound is returned by stores when a session ID cannot be found.
var ErrNotFound = errors.New("session not found")

// StateError reports a violated session invariant. These are not recoverable
// and always surface to the caller.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "invalid session state: " + e.Reason
}
