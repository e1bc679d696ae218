// Package journal records data entry activity in SQLite.
//
// Every committed session transition is appended to the events table so an
// operator can review what happened to an entry. The drafts table holds the
// session's temporary edit cache per entry so unsaved edits survive between
// CLI invocations. The journal is a local convenience, not a durable copy of
// the entry: the server stays the authority.
//
// Schema changes bump schemaVersion in schema.go; users delete the journal
// file to adopt the new schema.
package journal
