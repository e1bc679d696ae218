// Package session holds the data-entry session aggregate and the single
// transition function that evolves it.
//
// Reduce is pure: it never performs I/O and never mutates its input. The
// Store wraps a Session behind a mutex so dispatches are processed one at a
// time, and notifies subscribers (journal, logging) after each transition.
//
// The session Status doubles as the in-flight guard: while it is saving,
// deleting, or finalising, SetStatus refuses to start another operation.
// Reduce returns errors only for contract violations (unknown sections,
// malformed field paths, concurrent operations); validation feedback and
// transport failures are state, not errors.
package session
