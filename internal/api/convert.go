package api

import "tally/internal/validation"

// ToResults converts wire results into validation values.
func ToResults(in []ValidationResult) []validation.Result {
	out := make([]validation.Result, 0, len(in))
	for _, r := range in {
		out = append(out, validation.NewResult(r.Code, r.Fields...))
	}
	return out
}

// FromResults converts validation values into their wire form.
func FromResults(in []validation.Result) []ValidationResult {
	out := make([]ValidationResult, 0, len(in))
	for _, r := range in {
		out = append(out, ValidationResult{Code: r.Code(), Fields: r.Fields()})
	}
	return out
}
