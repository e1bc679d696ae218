// Package validation models the server's business-rule feedback for a data
// entry: individual results (a code plus the field paths it concerns) and a
// de-duplicating set of them.
//
// Results are data, never errors. Codes prefixed with F are blocking errors
// and codes prefixed with W are warnings the user may accept; the package
// does not interpret individual codes beyond the small set of global ones.
package validation
