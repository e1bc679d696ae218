package navguard

import (
	"fmt"
	"strconv"
	"strings"

	"tally/internal/sections"
)

// Location is a parsed data entry page path.
type Location struct {
	ElectionID       int64
	PollingStationID int64
	EntryNumber      int
	Section          sections.ID
}

var sectionPaths = map[sections.ID]string{
	sections.Recounted:         "recounted",
	sections.VotersVotesCounts: "voters-and-votes",
	sections.DifferencesCounts: "differences",
	sections.Save:              "save",
}

// BasePath is the namespace of one data entry's pages.
func BasePath(electionID, pollingStationID int64, entryNumber int) string {
	return fmt.Sprintf("/elections/%d/data-entry/%d/%d", electionID, pollingStationID, entryNumber)
}

// SectionPath is the page path of section id.
func SectionPath(electionID, pollingStationID int64, entryNumber int, id sections.ID) string {
	base := BasePath(electionID, pollingStationID, entryNumber)
	if n, ok := id.PoliticalGroupNumber(); ok {
		return fmt.Sprintf("%s/list/%d", base, n)
	}
	return base + "/" + sectionPaths[id]
}

// ParseLocation parses a data entry page path. lists bounds the list
// numbers that are accepted.
func ParseLocation(path string, lists int) (Location, error) {
	path = strings.TrimSuffix(stripQuery(path), "/")
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 6 || parts[0] != "elections" || parts[2] != "data-entry" {
		return Location{}, fmt.Errorf("not a data entry path: %q", path)
	}
	election, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Location{}, fmt.Errorf("election id in %q: %w", path, err)
	}
	station, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Location{}, fmt.Errorf("polling station id in %q: %w", path, err)
	}
	entry, err := strconv.Atoi(parts[4])
	if err != nil {
		return Location{}, fmt.Errorf("entry number in %q: %w", path, err)
	}
	loc := Location{ElectionID: election, PollingStationID: station, EntryNumber: entry}

	rest := parts[5:]
	switch {
	case len(rest) == 2 && rest[0] == "list":
		n, err := strconv.Atoi(rest[1])
		if err != nil || n < 1 || n > lists {
			return Location{}, fmt.Errorf("unknown list %q in %q", rest[1], path)
		}
		loc.Section = sections.PoliticalGroupVotes(n)
		return loc, nil
	case len(rest) == 1:
		for id, p := range sectionPaths {
			if p == rest[0] {
				loc.Section = id
				return loc, nil
			}
		}
	}
	return Location{}, fmt.Errorf("unknown section page %q", path)
}

// Within reports whether path lies inside base's namespace.
func Within(base, path string) bool {
	path = stripQuery(path)
	return path == base || strings.HasPrefix(path, base+"/")
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
