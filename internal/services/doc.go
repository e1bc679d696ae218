// Package services defines shared utilities consumed by the data-entry core
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp polling station IDs, entry numbers, section
//     identifiers, and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that separate recoverable
//     transport failures from fatal contract violations.
//
// Use these helpers when wiring new components so operational behaviour
// (error classification, observability) stays uniform across the module.
package services
