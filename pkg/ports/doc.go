/*
Package ports defines the driven ports (interfaces) for the weave engine.

These interfaces decouple the template engine from external collaborators:
model backends, interactive input channels, and session persistence. Adapters
under pkg/adapters implement them.

# Key Interfaces

  - Generator: produces a ModelOutput for the current session (the model API boundary).
  - InputProvider: reads a line of input from an interactive channel.
  - SessionStore: persists and loads serialized sessions.
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
