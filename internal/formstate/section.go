package formstate

import (
	"fmt"

	"tally/internal/sections"
	"tally/internal/validation"
)

// PoliticalGroup names a list on the ballot.
type PoliticalGroup struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Section is the status of one wizard step.
type Section struct {
	ID                  sections.ID
	Index               int
	Title               string
	IsSaved             bool
	IsSubmitted         bool
	HasChanges          bool
	AcceptWarnings      bool
	AcceptWarningsError bool
	Errors              *validation.ResultSet
	Warnings            *validation.ResultSet
}

func newSection(id sections.ID, index int, title string) Section {
	return Section{
		ID:       id,
		Index:    index,
		Title:    title,
		Errors:   validation.NewResultSet(),
		Warnings: validation.NewResultSet(),
	}
}

func (s Section) clone() Section {
	s.Errors = s.Errors.Clone()
	s.Warnings = s.Warnings.Clone()
	return s
}

// results returns the set for kind.
func (s Section) results(kind validation.Kind) *validation.ResultSet {
	if kind == validation.KindErrors {
		return s.Errors
	}
	return s.Warnings
}

// HasBlockingErrors reports whether the section carries errors that stop it
// from advancing. Global errors only block finalisation.
func (s Section) HasBlockingErrors() bool {
	return !s.Errors.IsEmpty() && !s.Errors.HasOnlyGlobalResults()
}

// HasUnacceptedWarnings reports whether section-level warnings still need the
// user's acceptance.
func (s Section) HasUnacceptedWarnings() bool {
	if s.Warnings.IsEmpty() || s.Warnings.HasOnlyGlobalResults() {
		return false
	}
	return !s.AcceptWarnings
}

// CanAdvance reports whether the user may move past this section. Errors
// always block regardless of warning acceptance.
func (s Section) CanAdvance() bool {
	return !s.HasBlockingErrors() && !s.HasUnacceptedWarnings()
}

// Complete reports whether the section is saved and fully resolved,
// including global results.
func (s Section) Complete() bool {
	if !s.IsSaved || !s.Errors.IsEmpty() {
		return false
	}
	return s.Warnings.IsEmpty() || s.AcceptWarnings
}

func sectionTitle(id sections.ID, groups []PoliticalGroup) string {
	switch id {
	case sections.Recounted:
		return "Recount"
	case sections.VotersVotesCounts:
		return "Voters and votes"
	case sections.DifferencesCounts:
		return "Differences"
	case sections.Save:
		return "Check and save"
	}
	if n, ok := id.PoliticalGroupNumber(); ok {
		for _, g := range groups {
			if g.Number == n && g.Name != "" {
				return fmt.Sprintf("List %d - %s", n, g.Name)
			}
		}
		return fmt.Sprintf("List %d", n)
	}
	return string(id)
}
