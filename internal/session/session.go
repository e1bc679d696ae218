package session

import (
	"tally/internal/api"
	"tally/internal/formstate"
	"tally/internal/sections"
)

// Cache is the single-slot store for edits that were not saved when the user
// navigated away from the frontier section.
type Cache struct {
	Key  sections.ID       `json:"key"`
	Data api.SectionValues `json:"data"`
}

// Session is the aggregate root of one polling station data entry.
type Session struct {
	ElectionID       int64
	PollingStationID int64
	EntryNumber      int

	// Results is nil until the first successful load.
	Results *api.PollingStationResults
	Form    formstate.FormState
	Status  Status
	Err     error
	Cache   *Cache

	// TargetSection is a pending navigation request for the UI layer.
	TargetSection sections.ID

	// Generation increments on every load so responses to requests issued
	// before the reload can be recognised and dropped.
	Generation uint64
}

// New creates an idle session for an entry with the given lists.
func New(electionID, pollingStationID int64, entryNumber int, groups []formstate.PoliticalGroup) Session {
	return Session{
		ElectionID:       electionID,
		PollingStationID: pollingStationID,
		EntryNumber:      entryNumber,
		Form:             formstate.New(groups),
		Status:           StatusIdle,
	}
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	if s.Results != nil {
		r := s.Results.Clone()
		out.Results = &r
	}
	out.Form = s.Form.Clone()
	if s.Cache != nil {
		c := *s.Cache
		c.Data = s.Cache.Data.Clone()
		out.Cache = &c
	}
	return out
}

// CurrentSection returns the section on screen.
func (s Session) CurrentSection() formstate.Section {
	return s.Form.Sections[s.Form.Current]
}

// CachedValues returns the temporarily cached edits for id, if the cache
// slot holds them.
func (s Session) CachedValues(id sections.ID) (api.SectionValues, bool) {
	if s.Cache == nil || s.Cache.Key != id {
		return api.SectionValues{}, false
	}
	return s.Cache.Data, true
}

// SectionValues returns the values id should show: cached edits when
// present, otherwise the authoritative results.
func (s Session) SectionValues(id sections.ID) api.SectionValues {
	if v, ok := s.CachedValues(id); ok {
		return v
	}
	if s.Results == nil {
		return api.SectionValues{}
	}
	return api.ValuesFor(*s.Results, id)
}
