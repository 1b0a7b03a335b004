/*
Package ports defines the driven ports (interfaces) for the formflow engine.

These interfaces decouple the flow logic from external implementations, allowing
the engine to work with various form sources, submission stores and dispatch
executors.

# Key Interfaces

  - FormLoader: Retrieves authored forms (e.g., from YAML files, Loam or memory).
  - SubmissionStore: Persists one submission per session.
  - CounterStore: Holds the per-form views/starts/completions totals.
  - DistributedLocker: Serializes access to a session across replicas.
  - ActionDispatcher: Accepts post-completion jobs for asynchronous execution.
*/
package ports
