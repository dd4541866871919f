/*
Package session defines the conversation state model: an immutable Session
aggregating an ordered Message list, conversation-level Vars, and a display
flag.

All values here follow the same rule: mutation returns a new value, the
original is never altered. This gives callers referential transparency — a
session captured before a template ran is still valid after, which makes
backtracking and testing trivial.

Sessions serialize to a plain {messages, vars, print} JSON record and
round-trip losslessly. Runtime wiring (the message Observer) is never part of
the serialized form.
*/
package session
