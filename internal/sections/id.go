package sections

import (
	"fmt"
	"strconv"
	"strings"

	"tally/internal/services"
)

// ID identifies one wizard section.
type ID string

const (
	Recounted         ID = "recounted"
	VotersVotesCounts ID = "voters_votes_counts"
	DifferencesCounts ID = "differences_counts"
	Save              ID = "save"

	politicalGroupPrefix = "political_group_votes_"
)

// PoliticalGroupVotes returns the section for list number n (1-based).
func PoliticalGroupVotes(n int) ID {
	return ID(politicalGroupPrefix + strconv.Itoa(n))
}

// PoliticalGroupNumber returns the 1-based list number for a political group
// section.
func (id ID) PoliticalGroupNumber() (int, bool) {
	rest, ok := strings.CutPrefix(string(id), politicalGroupPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (id ID) String() string { return string(id) }

// Order returns every section in wizard order for an election with the given
// number of lists.
func Order(lists int) []ID {
	ids := make([]ID, 0, lists+4)
	ids = append(ids, Recounted, VotersVotesCounts, DifferencesCounts)
	for n := 1; n <= lists; n++ {
		ids = append(ids, PoliticalGroupVotes(n))
	}
	return append(ids, Save)
}

// Index returns the fixed ordinal of id for an election with the given number
// of lists.
func Index(id ID, lists int) (int, error) {
	switch id {
	case Recounted:
		return 0, nil
	case VotersVotesCounts:
		return 1, nil
	case DifferencesCounts:
		return 2, nil
	case Save:
		return 3 + lists, nil
	}
	if n, ok := id.PoliticalGroupNumber(); ok && n <= lists {
		return 2 + n, nil
	}
	return 0, services.Invariant("unknown section %q for %d lists", id, lists)
}

// Parse validates s as a section identifier.
func Parse(s string, lists int) (ID, error) {
	id := ID(strings.TrimSpace(s))
	if _, err := Index(id, lists); err != nil {
		return "", fmt.Errorf("parse section: %w", err)
	}
	return id, nil
}
