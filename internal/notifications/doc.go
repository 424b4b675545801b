// Package notifications delivers operator notifications for pipeline runs.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Enumerated events
// cover run completion, run failure, daemon start, and a test message so callers
// emit consistent text without duplicating HTTP glue.
package notifications
