package sections

// Reference is a typed pointer to a section, used when a form registers
// itself as the current one. The set of implementations is closed.
type Reference interface {
	SectionID() ID
	isReference()
}

type RecountedRef struct{}

type VotersVotesCountsRef struct{}

type DifferencesCountsRef struct{}

// PoliticalGroupVotesRef points at the section for list Number (1-based).
type PoliticalGroupVotesRef struct {
	Number int
}

type SaveRef struct{}

func (RecountedRef) SectionID() ID             { return Recounted }
func (VotersVotesCountsRef) SectionID() ID     { return VotersVotesCounts }
func (DifferencesCountsRef) SectionID() ID     { return DifferencesCounts }
func (r PoliticalGroupVotesRef) SectionID() ID { return PoliticalGroupVotes(r.Number) }
func (SaveRef) SectionID() ID                  { return Save }

func (RecountedRef) isReference()           {}
func (VotersVotesCountsRef) isReference()   {}
func (DifferencesCountsRef) isReference()   {}
func (PoliticalGroupVotesRef) isReference() {}
func (SaveRef) isReference()                {}

// RefFor converts an identifier back into its typed reference.
func RefFor(id ID) (Reference, bool) {
	switch id {
	case Recounted:
		return RecountedRef{}, true
	case VotersVotesCounts:
		return VotersVotesCountsRef{}, true
	case DifferencesCounts:
		return DifferencesCountsRef{}, true
	case Save:
		return SaveRef{}, true
	}
	if n, ok := id.PoliticalGroupNumber(); ok {
		return PoliticalGroupVotesRef{Number: n}, true
	}
	return nil, false
}
