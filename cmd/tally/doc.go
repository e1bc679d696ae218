// Package main hosts the tally CLI entrypoint and command graph.
//
// The Cobra-based command tree drives one polling station data entry at a
// time against the election server: it loads the entry, submits sections,
// finalises or discards it, and shows progress and journal history. It
// centralizes configuration resolution, logging setup, the per-entry lock and
// the local journal so subcommands can focus on presentation.
//
// Keep this package lean: add new behaviour to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
