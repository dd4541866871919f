/*
Package observability provides lifecycle hooks and Prometheus collectors for
the weave engine.

Hooks is a plain struct of callbacks (nil fields are skipped) that can be
merged, turned into a session Observer, or used to instrument
templates and generators via decorators. Metrics wires a hook set to
Prometheus counters for dashboards and alerting.
*/
package observability
