package session

import (
	"fmt"

	"tally/internal/formstate"
	"tally/internal/services"
)

// Reduce returns the session that results from applying a to s. It never
// mutates s. A non-nil error means a contract was violated; the returned
// session is then s unchanged.
func Reduce(s Session, a Action) (Session, error) {
	var (
		next Session
		err  error
	)
	if s.Status.IsTerminal() {
		switch a := a.(type) {
		case SetStatus:
			return s, fmt.Errorf("%w: cannot move to %s after %s", services.ErrSessionClosed, a.Status, s.Status)
		case FormSaved:
			// Late response for an entry that has already ended.
			return s, nil
		}
	}
	switch a := a.(type) {
	case SessionLoaded:
		next, err = reduceLoaded(s, a)
	case LoadFailed:
		next = s.Clone()
		next.Err = a.Err
	case RegisterCurrentForm:
		next, err = reduceRegister(s, a)
	case SetStatus:
		next, err = reduceStatus(s, a)
	case SetCache:
		next, err = reduceCache(s, a)
	case UpdateFormSection:
		next, err = reduceUpdate(s, a)
	case FormSaveFailed:
		next = s.Clone()
		next.Err = a.Err
		if !s.Status.IsTerminal() {
			next.Status = StatusIdle
		}
	case FormSaved:
		next, err = reduceSaved(s, a)
	case ResetTargetSection:
		next = s.Clone()
		next.TargetSection = ""
	default:
		return s, services.Invariant("unhandled action %T", a)
	}
	if err != nil {
		return s, err
	}
	if err := next.Form.CheckCursors(); err != nil {
		return s, fmt.Errorf("%s: %w", a.Kind(), err)
	}
	return next, nil
}

func reduceLoaded(s Session, a SessionLoaded) (Session, error) {
	next := s.Clone()
	groups := s.Form.Groups
	if len(groups) == 0 {
		for _, g := range a.Data.PoliticalGroupVotes {
			groups = append(groups, formstate.PoliticalGroup{Number: g.Number})
		}
	}
	form, err := formstate.Restore(groups, a.ClientState, a.Errors, a.Warnings)
	if err != nil {
		return s, fmt.Errorf("session_loaded: %w", err)
	}
	results := a.Data.Clone()
	next.Results = &results
	next.Form = form
	next.Err = nil
	next.Cache = nil
	next.Generation++
	next.TargetSection = ""
	if a.ClientState != nil {
		next.TargetSection = form.Current
		if a.ClientState.Continue {
			next.TargetSection = form.Furthest
		}
	}
	return next, nil
}

func reduceRegister(s Session, a RegisterCurrentForm) (Session, error) {
	if a.Ref == nil {
		return s, services.Invariant("register_current_form without a section reference")
	}
	id := a.Ref.SectionID()
	sec, err := s.Form.Section(id)
	if err != nil {
		return s, err
	}
	furthest, err := s.Form.Index(s.Form.Furthest)
	if err != nil {
		return s, err
	}
	next := s.Clone()
	if sec.Index > furthest {
		// Forward navigation past the frontier is redirected.
		next.TargetSection = s.Form.Furthest
		return next, nil
	}
	next.Form.Current = id
	sec = next.Form.Sections[id]
	sec.IsSubmitted = false
	next.Form.Sections[id] = sec
	return next, nil
}

func reduceStatus(s Session, a SetStatus) (Session, error) {
	if !a.Status.IsValid() {
		return s, services.Invariant("unknown status %q", a.Status)
	}
	if a.Status.IsBusy() && s.Status.IsBusy() {
		return s, fmt.Errorf("%w: cannot start %s while %s", services.ErrOperationInFlight, a.Status, s.Status)
	}
	next := s.Clone()
	next.Status = a.Status
	return next, nil
}

func reduceCache(s Session, a SetCache) (Session, error) {
	next := s.Clone()
	if a.Cache == nil {
		next.Cache = nil
		return next, nil
	}
	if _, err := s.Form.Section(a.Cache.Key); err != nil {
		return s, err
	}
	c := Cache{Key: a.Cache.Key, Data: a.Cache.Data.Clone()}
	next.Cache = &c
	return next, nil
}

func reduceUpdate(s Session, a UpdateFormSection) (Session, error) {
	next := s.Clone()
	sec, err := next.Form.Section(next.Form.Current)
	if err != nil {
		return s, err
	}
	u := a.Update
	if u.HasChanges != nil {
		sec.HasChanges = *u.HasChanges
		if sec.HasChanges {
			sec.AcceptWarnings = false
			sec.AcceptWarningsError = false
		}
	}
	if u.AcceptWarnings != nil {
		sec.AcceptWarnings = *u.AcceptWarnings
		if sec.AcceptWarnings {
			sec.AcceptWarningsError = false
		}
	}
	if u.AcceptWarningsError != nil {
		sec.AcceptWarningsError = *u.AcceptWarningsError
	}
	if u.IsSubmitted != nil {
		sec.IsSubmitted = *u.IsSubmitted
	}
	next.Form.Sections[sec.ID] = sec
	return next, nil
}

func reduceSaved(s Session, a FormSaved) (Session, error) {
	if a.Generation != s.Generation {
		// Response to a request issued before the session was reloaded.
		return s, nil
	}
	sec, err := s.Form.Section(a.Section)
	if err != nil {
		return s, err
	}
	priorFurthest, err := s.Form.Index(s.Form.Furthest)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	results := a.Values.Clone()
	next.Results = &results
	next.Err = nil

	sec = next.Form.Sections[a.Section]
	sec.IsSaved = true
	sec.IsSubmitted = true
	sec.HasChanges = false
	sec.AcceptWarnings = a.AcceptWarnings
	sec.AcceptWarningsError = false
	next.Form.Sections[a.Section] = sec

	if err := next.Form.ApplyValidation(a.Errors, a.Warnings); err != nil {
		return s, fmt.Errorf("form_saved: %w", err)
	}
	if next.Cache != nil && next.Cache.Key == a.Section {
		next.Cache = nil
	}

	sec = next.Form.Sections[a.Section]
	if !a.Advance {
		return next, nil
	}
	if !sec.CanAdvance() {
		if !sec.HasBlockingErrors() && sec.HasUnacceptedWarnings() {
			sec.AcceptWarningsError = true
			next.Form.Sections[a.Section] = sec
		}
		return next, nil
	}
	following, ok := next.Form.Next(a.Section)
	if !ok {
		return next, nil
	}
	if sec.Index == priorFurthest {
		next.Form.Furthest = following
	}
	next.TargetSection = following
	return next, nil
}
