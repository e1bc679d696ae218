package formstate

import (
	"slices"

	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/validation"
)

// FormState is the ordered collection of sections plus the two cursors.
type FormState struct {
	Current  sections.ID
	Furthest sections.ID
	Sections map[sections.ID]Section
	Groups   []PoliticalGroup
}

// New returns a fresh form for an election with the given lists. Nothing is
// saved and both cursors sit on the first section.
func New(groups []PoliticalGroup) FormState {
	groups = slices.Clone(groups)
	slices.SortFunc(groups, func(a, b PoliticalGroup) int { return a.Number - b.Number })
	order := sections.Order(len(groups))
	fs := FormState{
		Current:  order[0],
		Furthest: order[0],
		Sections: make(map[sections.ID]Section, len(order)),
		Groups:   groups,
	}
	for i, id := range order {
		fs.Sections[id] = newSection(id, i, sectionTitle(id, groups))
	}
	return fs
}

// Clone returns a deep copy, including every section's result sets.
func (fs FormState) Clone() FormState {
	out := fs
	out.Groups = slices.Clone(fs.Groups)
	out.Sections = make(map[sections.ID]Section, len(fs.Sections))
	for id, s := range fs.Sections {
		out.Sections[id] = s.clone()
	}
	return out
}

// Section returns the section for id or an invariant error if the form does
// not contain it.
func (fs FormState) Section(id sections.ID) (Section, error) {
	s, ok := fs.Sections[id]
	if !ok {
		return Section{}, services.Invariant("section %q is not part of this form", id)
	}
	return s, nil
}

// Index returns the ordinal of id.
func (fs FormState) Index(id sections.ID) (int, error) {
	s, err := fs.Section(id)
	if err != nil {
		return 0, err
	}
	return s.Index, nil
}

// Order returns section identifiers in wizard order.
func (fs FormState) Order() []sections.ID {
	ids := make([]sections.ID, 0, len(fs.Sections))
	for id := range fs.Sections {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b sections.ID) int { return fs.Sections[a].Index - fs.Sections[b].Index })
	return ids
}

// Next returns the section following id, if any.
func (fs FormState) Next(id sections.ID) (sections.ID, bool) {
	s, ok := fs.Sections[id]
	if !ok {
		return "", false
	}
	for _, candidate := range fs.Sections {
		if candidate.Index == s.Index+1 {
			return candidate.ID, true
		}
	}
	return "", false
}

// Update stores s back into the form.
func (fs FormState) Update(s Section) error {
	if _, ok := fs.Sections[s.ID]; !ok {
		return services.Invariant("section %q is not part of this form", s.ID)
	}
	fs.Sections[s.ID] = s
	return nil
}

// ResetResults empties every section's errors and warnings.
func (fs FormState) ResetResults() {
	for id, s := range fs.Sections {
		s.Errors = validation.NewResultSet()
		s.Warnings = validation.NewResultSet()
		fs.Sections[id] = s
	}
}

// DistributeResults adds each result to every saved section its fields map
// to. Results for unsaved or unknown sections are dropped: a section that was
// never submitted cannot carry feedback. Applying the same results twice is a
// no-op the second time.
func (fs FormState) DistributeResults(results []validation.Result, kind validation.Kind) error {
	for _, r := range results {
		ids, err := sections.ForResult(r)
		if err != nil {
			return err
		}
		for _, id := range ids {
			s, ok := fs.Sections[id]
			if !ok || !s.IsSaved {
				continue
			}
			s.results(kind).Add(r)
		}
	}
	return nil
}

// ApplyValidation replaces all feedback with errs and warnings.
func (fs FormState) ApplyValidation(errs, warnings []validation.Result) error {
	fs.ResetResults()
	if err := fs.DistributeResults(errs, validation.KindErrors); err != nil {
		return err
	}
	return fs.DistributeResults(warnings, validation.KindWarnings)
}

// SavedCount returns how many sections are saved.
func (fs FormState) SavedCount() int {
	n := 0
	for _, s := range fs.Sections {
		if s.IsSaved {
			n++
		}
	}
	return n
}

// Progress is the coarse completion indicator sent with every save: the
// percentage of saved sections.
func (fs FormState) Progress() int {
	if len(fs.Sections) == 0 {
		return 0
	}
	return fs.SavedCount() * 100 / len(fs.Sections)
}

// CanFinalise reports whether every data section is saved, error free, and
// has no unaccepted warnings.
func (fs FormState) CanFinalise() bool {
	for _, s := range fs.Sections {
		if s.ID == sections.Save {
			continue
		}
		if !s.Complete() {
			return false
		}
	}
	return true
}

// GlobalResults collects the whole-entry results of kind across sections in
// wizard order, without duplicates.
func (fs FormState) GlobalResults(kind validation.Kind) *validation.ResultSet {
	out := validation.NewResultSet()
	for _, id := range fs.Order() {
		for _, r := range fs.Sections[id].results(kind).Results() {
			if r.IsGlobal() {
				out.Add(r)
			}
		}
	}
	return out
}

// AcceptedWarnings lists the sections whose warnings were accepted.
func (fs FormState) AcceptedWarnings() []sections.ID {
	var ids []sections.ID
	for _, id := range fs.Order() {
		if fs.Sections[id].AcceptWarnings {
			ids = append(ids, id)
		}
	}
	return ids
}

// CheckCursors verifies that both cursors exist and Current does not lie
// past Furthest.
func (fs FormState) CheckCursors() error {
	cur, err := fs.Index(fs.Current)
	if err != nil {
		return err
	}
	furthest, err := fs.Index(fs.Furthest)
	if err != nil {
		return err
	}
	if cur > furthest {
		return services.Invariant("current section %q lies past furthest %q", fs.Current, fs.Furthest)
	}
	return nil
}
