package validation

import (
	"slices"
	"strings"
)

// Kind distinguishes blocking errors from acceptable warnings.
type Kind string

const (
	KindErrors   Kind = "errors"
	KindWarnings Kind = "warnings"
)

// Result is a single validation finding. It is an immutable value: Fields
// is copied on construction and never exposed for mutation.
type Result struct {
	code   string
	fields []string
}

// NewResult builds a result for code addressing the given field paths.
func NewResult(code string, fields ...string) Result {
	return Result{code: code, fields: slices.Clone(fields)}
}

// Code returns the validation code, e.g. F201 or W301.
func (r Result) Code() string { return r.code }

// Fields returns a copy of the ordered field paths.
func (r Result) Fields() []string { return slices.Clone(r.fields) }

// Equal reports whether both results carry the same code and field sequence.
func (r Result) Equal(other Result) bool {
	return r.code == other.code && slices.Equal(r.fields, other.fields)
}

// IsGlobal reports whether the result only makes sense for the entry as a
// whole rather than a single section.
func (r Result) IsGlobal() bool {
	_, ok := globalCodes[r.code]
	return ok
}

func (r Result) key() string {
	return r.code + "\x00" + strings.Join(r.fields, "\x1f")
}

func (r Result) String() string {
	if len(r.fields) == 0 {
		return r.code
	}
	return r.code + " [" + strings.Join(r.fields, ", ") + "]"
}

// globalCodes lists results that are attributed to the whole entry and only
// surface at the final check.
var globalCodes = map[string]struct{}{
	"F204": {},
}

// IsGlobalCode reports whether code is one of the whole-entry codes.
func IsGlobalCode(code string) bool {
	_, ok := globalCodes[code]
	return ok
}
