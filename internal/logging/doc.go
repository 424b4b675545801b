// Package logging assembles structured slog loggers and formatting helpers used
// across subtitler services.
//
// It owns the console/JSON handlers, level and output plumbing, and
// context-aware helpers that tag log lines with session IDs, run IDs, and
// pipeline stages. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
