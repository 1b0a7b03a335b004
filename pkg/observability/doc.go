/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured log lines.

Both NewMetrics and LoggingHooks return domain.LifecycleHooks; use Combine to
register several sets on one engine.
*/
package observability
