package sections

import (
	"strconv"
	"strings"

	"tally/internal/services"
	"tally/internal/validation"
)

const politicalGroupField = "political_group_votes"

// MapField returns the section a validation field path belongs to. The second
// dotted segment names the data group; political_group_votes[i] maps to the
// 1-based section i+1. Unknown groups indicate a client/server contract
// mismatch and are reported as invariant violations.
func MapField(path string) (ID, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return "", services.Invariant("malformed field path %q", path)
	}
	group := parts[1]
	switch group {
	case "recounted":
		return Recounted, nil
	case "votes_counts", "voters_counts", "voters_recounts":
		return VotersVotesCounts, nil
	case "differences_counts":
		return DifferencesCounts, nil
	}
	if rest, ok := strings.CutPrefix(group, politicalGroupField+"["); ok {
		raw, ok := strings.CutSuffix(rest, "]")
		if !ok {
			return "", services.Invariant("malformed field path %q", path)
		}
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			return "", services.Invariant("malformed list index in field path %q", path)
		}
		return PoliticalGroupVotes(index + 1), nil
	}
	return "", services.Invariant("field path %q does not belong to any section", path)
}

// ForResult returns the distinct sections addressed by r, in the order its
// fields first mention them.
func ForResult(r validation.Result) ([]ID, error) {
	var ids []ID
	seen := make(map[ID]struct{})
	for _, field := range r.Fields() {
		id, err := MapField(field)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
