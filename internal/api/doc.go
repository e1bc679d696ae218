// Package api defines the wire-format types exchanged with the election
// server's data entry endpoints.
//
// # Key Types
//
// PollingStationResults: the full set of tallies for one polling station, as
// stored by the server.
//
// SectionValues: a partial value bag covering one or more data groups, merged
// over the authoritative results before a save.
//
// LoadResponse/SaveRequest/SaveResponse: request and response bodies of the
// data entry endpoints. ClientState is passed through as json.RawMessage; its
// shape is owned by the formstate package.
//
// # Design Notes
//
// JSON tags use snake_case to match the server. Paths are built with the
// helpers in paths.go so the client and test servers agree on routing.
package api
