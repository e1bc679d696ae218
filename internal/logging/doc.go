// Package logging assembles structured slog loggers and formatting helpers used
// across tally components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session code can automatically
// tag log lines with polling station IDs, entry numbers, sections, and
// correlation IDs. Every record from NewFromConfig carries the run ID and the
// configured election. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape as the rest of the module.
package logging
