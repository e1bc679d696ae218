package api

import (
	"slices"

	"tally/internal/sections"
)

// SectionValues is a partial result-value bag. Nil groups are left untouched
// by Merge; political group entries replace the entry with the same number.
type SectionValues struct {
	Recounted           *bool                 `json:"recounted,omitempty"`
	VotersCounts        *VotersCounts         `json:"voters_counts,omitempty"`
	VotesCounts         *VotesCounts          `json:"votes_counts,omitempty"`
	VotersRecounts      *VotersCounts         `json:"voters_recounts,omitempty"`
	DifferencesCounts   *DifferencesCounts    `json:"differences_counts,omitempty"`
	PoliticalGroupVotes []PoliticalGroupVotes `json:"political_group_votes,omitempty"`
}

// IsZero reports whether the bag carries no values at all.
func (v SectionValues) IsZero() bool {
	return v.Recounted == nil && v.VotersCounts == nil && v.VotesCounts == nil &&
		v.VotersRecounts == nil && v.DifferencesCounts == nil && len(v.PoliticalGroupVotes) == 0
}

// Clone returns a deep copy of the bag.
func (v SectionValues) Clone() SectionValues {
	out := SectionValues{PoliticalGroupVotes: clonePoliticalGroups(v.PoliticalGroupVotes)}
	if v.Recounted != nil {
		b := *v.Recounted
		out.Recounted = &b
	}
	if v.VotersCounts != nil {
		c := *v.VotersCounts
		out.VotersCounts = &c
	}
	if v.VotesCounts != nil {
		c := *v.VotesCounts
		out.VotesCounts = &c
	}
	if v.VotersRecounts != nil {
		c := *v.VotersRecounts
		out.VotersRecounts = &c
	}
	if v.DifferencesCounts != nil {
		c := *v.DifferencesCounts
		out.DifferencesCounts = &c
	}
	return out
}

// Clone returns a deep copy of the results.
func (r PollingStationResults) Clone() PollingStationResults {
	out := r
	if r.Recounted != nil {
		v := *r.Recounted
		out.Recounted = &v
	}
	if r.VotersRecounts != nil {
		v := *r.VotersRecounts
		out.VotersRecounts = &v
	}
	out.PoliticalGroupVotes = clonePoliticalGroups(r.PoliticalGroupVotes)
	return out
}

// Merge returns base with patch applied. A recount flag set to false drops
// any voter recount figures.
func Merge(base PollingStationResults, patch SectionValues) PollingStationResults {
	out := base.Clone()
	if patch.Recounted != nil {
		v := *patch.Recounted
		out.Recounted = &v
	}
	if patch.VotersCounts != nil {
		out.VotersCounts = *patch.VotersCounts
	}
	if patch.VotesCounts != nil {
		out.VotesCounts = *patch.VotesCounts
	}
	if patch.VotersRecounts != nil {
		v := *patch.VotersRecounts
		out.VotersRecounts = &v
	}
	if patch.DifferencesCounts != nil {
		out.DifferencesCounts = *patch.DifferencesCounts
	}
	for _, group := range patch.PoliticalGroupVotes {
		replaced := false
		for i := range out.PoliticalGroupVotes {
			if out.PoliticalGroupVotes[i].Number == group.Number {
				out.PoliticalGroupVotes[i] = cloneGroup(group)
				replaced = true
				break
			}
		}
		if !replaced {
			out.PoliticalGroupVotes = append(out.PoliticalGroupVotes, cloneGroup(group))
		}
	}
	slices.SortFunc(out.PoliticalGroupVotes, func(a, b PoliticalGroupVotes) int { return a.Number - b.Number })
	if out.Recounted != nil && !*out.Recounted {
		out.VotersRecounts = nil
	}
	return out
}

// ValuesFor extracts the values a section edits from the full results.
func ValuesFor(results PollingStationResults, id sections.ID) SectionValues {
	switch id {
	case sections.Recounted:
		if results.Recounted == nil {
			return SectionValues{}
		}
		v := *results.Recounted
		return SectionValues{Recounted: &v}
	case sections.VotersVotesCounts:
		voters := results.VotersCounts
		votes := results.VotesCounts
		out := SectionValues{VotersCounts: &voters, VotesCounts: &votes}
		if results.VotersRecounts != nil {
			v := *results.VotersRecounts
			out.VotersRecounts = &v
		}
		return out
	case sections.DifferencesCounts:
		d := results.DifferencesCounts
		return SectionValues{DifferencesCounts: &d}
	}
	if n, ok := id.PoliticalGroupNumber(); ok {
		for _, group := range results.PoliticalGroupVotes {
			if group.Number == n {
				return SectionValues{PoliticalGroupVotes: []PoliticalGroupVotes{cloneGroup(group)}}
			}
		}
	}
	return SectionValues{}
}

func cloneGroup(g PoliticalGroupVotes) PoliticalGroupVotes {
	g.CandidateVotes = slices.Clone(g.CandidateVotes)
	return g
}

func clonePoliticalGroups(groups []PoliticalGroupVotes) []PoliticalGroupVotes {
	if groups == nil {
		return nil
	}
	out := make([]PoliticalGroupVotes, len(groups))
	for i, g := range groups {
		out[i] = cloneGroup(g)
	}
	return out
}
