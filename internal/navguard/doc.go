// Package navguard decides whether leaving the current wizard page must be
// confirmed, and carries out the user's answer.
//
// Moving between sections while on the frontier section keeps unsaved edits
// in the session's single-slot cache. Revisiting a completed section with
// unsaved edits, or leaving the data entry pages entirely, needs an explicit
// save or discard choice.
package navguard
