/*
Package source provides the pluggable content producers that templates use to
obtain text or structured model output.

Every source runs inside the same retry envelope: acquire content from the
variant-specific producer, gate it through an optional validator, retry while
attempts remain, and finally either fail with a ValidationError or return the
last content best-effort. Retries are invisible to the calling template — the
transcript never records failed attempts.

Variants: Static (fixed value), List (next item per call, exhausting or
explicitly cycling), Callback (user function), Input (interactive channel),
and Generation (model backend, guarded by a shared call-count Governor).
*/
package source
