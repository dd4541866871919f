package session

import (
	"encoding/json"
	"fmt"
	"os"
)

// Observer receives every message appended to a session with Print enabled.
// Implementations must not retain or mutate the message.
type Observer interface {
	ObserveMessage(Message)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Message)

// ObserveMessage calls f(msg).
func (f ObserverFunc) ObserveMessage(msg Message) { f(msg) }

// stdoutObserver is the default observation channel when Print is enabled and
// no observer was injected.
var stdoutObserver Observer = ObserverFunc(func(msg Message) {
	fmt.Fprintf(os.Stdout, "%s: %s\n", msg.Role, msg.Content)
})

// Session is the immutable conversation state: an ordered message list plus
// conversation Vars and a display flag. Every transformation returns a new
// Session; the previous instance and its messages remain valid and unchanged,
// which makes sessions safe to keep around for testing or backtracking.
type Session struct {
	messages []Message
	vars     Vars
	print    bool
	observer Observer
}

// Option configures a new Session.
type Option func(*Session)

// WithVars sets the initial conversation vars.
func WithVars(vars Vars) Option {
	return func(s *Session) {
		s.vars = vars
	}
}

// WithMessages seeds the session with messages, in order.
func WithMessages(msgs ...Message) Option {
	return func(s *Session) {
		s.messages = append([]Message(nil), msgs...)
	}
}

// WithPrint enables echoing of appended messages to the observer.
func WithPrint(print bool) Option {
	return func(s *Session) {
		s.print = print
	}
}

// WithObserver sets the observation channel used when Print is enabled.
// Observers are runtime wiring: they survive derivation but are never
// serialized.
func WithObserver(obs Observer) Option {
	return func(s *Session) {
		s.observer = obs
	}
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// derive produces a copy sharing nothing mutable with s.
func (s *Session) derive() *Session {
	next := &Session{
		// The message slice is append-only and only ever extended through
		// full reallocation, so sharing the backing array here is safe.
		messages: s.messages,
		vars:     s.vars,
		print:    s.print,
		observer: s.observer,
	}
	return next
}

// Append returns a new session with msg added at the end. The receiver is
// unchanged. When Print is enabled the message is echoed to the observer as a
// side effect, without affecting the returned value.
func (s *Session) Append(msg Message) *Session {
	next := s.derive()
	msgs := make([]Message, len(s.messages), len(s.messages)+1)
	copy(msgs, s.messages)
	next.messages = append(msgs, msg)

	if s.print {
		obs := s.observer
		if obs == nil {
			obs = stdoutObserver
		}
		obs.ObserveMessage(msg)
	}
	return next
}

// Messages returns a copy of the ordered message list.
func (s *Session) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

// Len returns the number of messages.
func (s *Session) Len() int {
	return len(s.messages)
}

// LastMessage returns the most recent message, or false when the session is
// empty.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// MessagesByRole returns the subsequence of messages with the given role,
// preserving relative order.
func (s *Session) MessagesByRole(role Role) []Message {
	var out []Message
	for _, m := range s.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// Vars returns the conversation vars.
func (s *Session) Vars() Vars {
	return s.vars
}

// Var returns the var bound to key and whether it was present.
func (s *Session) Var(key string) (any, bool) {
	return s.vars.Get(key)
}

// VarDefault returns the var bound to key, or def if absent.
func (s *Session) VarDefault(key string, def any) any {
	return s.vars.GetDefault(key, def)
}

// WithVar returns a new session with key bound to value.
func (s *Session) WithVar(key string, value any) *Session {
	next := s.derive()
	next.vars = s.vars.Set(key, value)
	return next
}

// MergeVars returns a new session with vars merged on top of the existing set.
func (s *Session) MergeVars(vars Vars) *Session {
	next := s.derive()
	next.vars = s.vars.Merge(vars)
	return next
}

// ReplaceVars returns a new session whose vars are exactly the given set.
func (s *Session) ReplaceVars(vars Vars) *Session {
	next := s.derive()
	next.vars = vars
	return next
}

// ReplaceMessages returns a new session whose transcript is exactly the given
// messages, in order. No echo happens; this is a bulk rewrite, not an append.
func (s *Session) ReplaceMessages(msgs []Message) *Session {
	next := s.derive()
	next.messages = append([]Message(nil), msgs...)
	return next
}

// Print reports whether appended messages are echoed to the observer.
func (s *Session) Print() bool {
	return s.print
}

// WithPrint returns a new session with the print flag set.
func (s *Session) WithPrint(print bool) *Session {
	next := s.derive()
	next.print = print
	return next
}

// WithObserver returns a new session using the given observation channel.
func (s *Session) WithObserver(obs Observer) *Session {
	next := s.derive()
	next.observer = obs
	return next
}

// Observer returns the configured observation channel, or nil.
func (s *Session) Observer() Observer {
	return s.observer
}

// Validate checks the session invariants on demand: the session must not be
// empty, it may contain at most one system message, and a system message, if
// present, must come first. Violations are reported as a *StateError naming
// the broken invariant.
func (s *Session) Validate() error {
	if len(s.messages) == 0 {
		return &StateError{Reason: "session has no messages"}
	}
	systemCount := 0
	for i, m := range s.messages {
		if m.Role != RoleSystem {
			continue
		}
		systemCount++
		if systemCount > 1 {
			return &StateError{Reason: "multiple system messages"}
		}
		if i != 0 {
			return &StateError{Reason: "system message is not the first message"}
		}
	}
	return nil
}

// snapshot is the plain serialized form of a session. Observers and any other
// runtime wiring never appear here.
type snapshot struct {
	Messages []Message      `json:"messages"`
	Vars     map[string]any `json:"vars"`
	Print    bool           `json:"print"`
}

// MarshalJSON encodes the session as a plain {messages, vars, print} record.
func (s *Session) MarshalJSON() ([]byte, error) {
	snap := snapshot{
		Messages: s.messages,
		Vars:     s.vars.AsMap(),
		Print:    s.print,
	}
	if snap.Messages == nil {
		snap.Messages = []Message{}
	}
	return json.Marshal(snap)
}

// UnmarshalJSON reconstructs a session from its plain serialized form.
// Round-tripping preserves message order and content, vars under key lookup,
// and the print flag.
func (s *Session) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	s.messages = snap.Messages
	s.vars = NewVars(snap.Vars)
	s.print = snap.Print
	s.observer = nil
	return nil
}
