// Package formstate tracks the per-section progress of one data entry: which
// sections were saved, which carry unsaved edits, accepted warnings, and the
// validation feedback the server attached to them.
//
// FormState values are plain data. Mutating methods operate on the receiver,
// so the session reducer always works on a Clone. Two cursors are kept:
// Current, the section on screen, and Furthest, the frontier the user has not
// yet completed. Current never moves past Furthest and Furthest never moves
// back.
//
// The client state codec in clientstate.go persists the cursors and accepted
// warnings through the server so a session resumes exactly where it stopped.
package formstate
