// Package notifications publishes data entry lifecycle notices to ntfy.
//
// NewService returns a noop implementation when no topic is configured, so
// callers can notify unconditionally. Notices are sent when an entry is
// finalised, deleted, or left for later, and when an operation fails.
// Delivery failures are returned to the caller; the CLI logs them and
// carries on because a notice never changes the entry.
package notifications
