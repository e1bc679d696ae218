package formstate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tally/internal/sections"
	"tally/internal/validation"
)

// ClientState is the cursor metadata persisted alongside the tallies.
type ClientState struct {
	Furthest         sections.ID   `json:"furthest"`
	Current          sections.ID   `json:"current"`
	AcceptedWarnings []sections.ID `json:"accepted_warnings"`
	Continue         bool          `json:"continue"`
}

// ClientState snapshots the cursors and accepted warnings. continueToNext
// records that Furthest is being submitted with the intent to move on.
func (fs FormState) ClientState(continueToNext bool) ClientState {
	accepted := fs.AcceptedWarnings()
	if accepted == nil {
		accepted = []sections.ID{}
	}
	return ClientState{
		Furthest:         fs.Furthest,
		Current:          fs.Current,
		AcceptedWarnings: accepted,
		Continue:         continueToNext,
	}
}

// EncodeClientState renders cs as the opaque blob stored by the server.
func EncodeClientState(cs ClientState) (json.RawMessage, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("encode client state: %w", err)
	}
	return data, nil
}

// DecodeClientState parses a stored blob. Empty and null blobs yield nil.
func DecodeClientState(raw json.RawMessage) (*ClientState, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var cs ClientState
	if err := json.Unmarshal(trimmed, &cs); err != nil {
		return nil, fmt.Errorf("decode client state: %w", err)
	}
	if cs.Furthest == "" {
		return nil, nil
	}
	return &cs, nil
}

// Restore rebuilds a form from persisted client state and the validation
// results returned with it. Sections before Furthest are saved. Furthest
// itself is saved when the state was written while continuing from it, or
// when the server attached feedback to it. A continued Furthest that can
// advance moves Furthest to the following section. Unknown cursors are
// reported as errors; a Current past Furthest is pulled back to Furthest.
func Restore(groups []PoliticalGroup, cs *ClientState, errs, warnings []validation.Result) (FormState, error) {
	fs := New(groups)
	if cs == nil {
		return fs, fs.ApplyValidation(errs, warnings)
	}

	furthest, err := fs.Index(cs.Furthest)
	if err != nil {
		return FormState{}, fmt.Errorf("restore furthest: %w", err)
	}
	current := furthest
	if cs.Current != "" {
		if current, err = fs.Index(cs.Current); err != nil {
			return FormState{}, fmt.Errorf("restore current: %w", err)
		}
	}
	fs.Furthest = cs.Furthest
	fs.Current = cs.Current
	if current > furthest || cs.Current == "" {
		fs.Current = cs.Furthest
	}

	addressed := make(map[sections.ID]struct{})
	for _, r := range append(append([]validation.Result{}, errs...), warnings...) {
		ids, err := sections.ForResult(r)
		if err != nil {
			return FormState{}, err
		}
		for _, id := range ids {
			addressed[id] = struct{}{}
		}
	}

	for id, s := range fs.Sections {
		_, hasFeedback := addressed[id]
		if s.Index < furthest || (s.Index == furthest && (hasFeedback || cs.Continue)) {
			s.IsSaved = true
		}
		fs.Sections[id] = s
	}
	for _, id := range cs.AcceptedWarnings {
		s, ok := fs.Sections[id]
		if !ok || !s.IsSaved {
			continue
		}
		s.AcceptWarnings = true
		fs.Sections[id] = s
	}
	if err := fs.ApplyValidation(errs, warnings); err != nil {
		return FormState{}, err
	}
	if cs.Continue {
		if s := fs.Sections[fs.Furthest]; s.IsSaved && s.CanAdvance() {
			if next, ok := fs.Next(fs.Furthest); ok {
				fs.Furthest = next
			}
		}
	}
	return fs, nil
}
