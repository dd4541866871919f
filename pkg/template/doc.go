/*
Package template implements the node-composition engine: small execution nodes
that each consume a session and return a new one.

Primitives append a single message (System, User, Assistant) or derive state
(Transform, If). Composites (Sequence, Loop, Subroutine) delegate to children
and thread the session through. Execution is single-threaded and cooperative;
the only suspension points are a generation source awaiting a model backend
and an input source awaiting a line of input.

Loop condition convention: true means "continue". This is fixed engine-wide;
see Loop.

Validation retries never leave traces in the transcript. A failed attempt is
visible only through logs, hooks, or the final error.
*/
package template
