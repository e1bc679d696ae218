package session

import (
	"tally/internal/api"
	"tally/internal/formstate"
	"tally/internal/sections"
	"tally/internal/validation"
)

// Action is a transition request. The set of implementations is closed and
// Reduce handles every one of them.
type Action interface {
	Kind() string
	isAction()
}

// SessionLoaded delivers a server load response. ClientState is nil when the
// entry has never been saved.
type SessionLoaded struct {
	Data        api.PollingStationResults
	ClientState *formstate.ClientState
	Errors      []validation.Result
	Warnings    []validation.Result
}

// LoadFailed records a failed load without touching the rest of the state.
type LoadFailed struct {
	Err error
}

// RegisterCurrentForm marks the referenced section as the one on screen.
type RegisterCurrentForm struct {
	Ref sections.Reference
}

// SetStatus changes the network activity flag.
type SetStatus struct {
	Status Status
}

// SetCache replaces the temporary cache slot. A nil Cache clears it.
type SetCache struct {
	Cache *Cache
}

// SectionUpdate is a partial section status. Nil fields are left unchanged.
type SectionUpdate struct {
	HasChanges          *bool
	AcceptWarnings      *bool
	AcceptWarningsError *bool
	IsSubmitted         *bool
}

// UpdateFormSection merges Update into the current section.
type UpdateFormSection struct {
	Update SectionUpdate
}

// FormSaveFailed records a failed save, delete, or finalise request and
// returns the session to idle.
type FormSaveFailed struct {
	Err error
}

// FormSaved delivers a successful save of Section. Generation must match the
// session's generation at the time the request was issued.
type FormSaved struct {
	Section        sections.ID
	Values         api.PollingStationResults
	Errors         []validation.Result
	Warnings       []validation.Result
	AcceptWarnings bool
	Advance        bool
	Generation     uint64
	RequestID      string
}

// ResetTargetSection clears the pending navigation target once consumed.
type ResetTargetSection struct{}

func (SessionLoaded) Kind() string       { return "session_loaded" }
func (LoadFailed) Kind() string          { return "load_failed" }
func (RegisterCurrentForm) Kind() string { return "register_current_form" }
func (SetStatus) Kind() string           { return "set_status" }
func (SetCache) Kind() string            { return "set_cache" }
func (UpdateFormSection) Kind() string   { return "update_form_section" }
func (FormSaveFailed) Kind() string      { return "form_save_failed" }
func (FormSaved) Kind() string           { return "form_saved" }
func (ResetTargetSection) Kind() string  { return "reset_target_section" }

func (SessionLoaded) isAction()       {}
func (LoadFailed) isAction()          {}
func (RegisterCurrentForm) isAction() {}
func (SetStatus) isAction()           {}
func (SetCache) isAction()            {}
func (UpdateFormSection) isAction()   {}
func (FormSaveFailed) isAction()      {}
func (FormSaved) isAction()           {}
func (ResetTargetSection) isAction()  {}

// Bool returns a pointer to v, for building SectionUpdate values.
func Bool(v bool) *bool { return &v }
