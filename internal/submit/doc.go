// Package submit issues the network operations of a data entry session.
//
// A Coordinator owns the request side of one session: it builds the save
// payload from the authoritative results and the form cursors, drives the
// status guard held by the session store, and turns transport failures into
// session errors. Validation feedback in a successful response is data and
// never makes an operation fail.
package submit
