package session_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"tally/internal/api"
	"tally/internal/formstate"
	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/session"
	"tally/internal/validation"
)

var lists = []formstate.PoliticalGroup{{Number: 1, Name: "Party A"}, {Number: 2, Name: "Party B"}}

func newSession() session.Session {
	return session.New(1, 10, 1, lists)
}

func mustReduce(t *testing.T, s session.Session, actions ...session.Action) session.Session {
	t.Helper()
	for _, a := range actions {
		next, err := session.Reduce(s, a)
		if err != nil {
			t.Fatalf("Reduce(%s): %v", a.Kind(), err)
		}
		s = next
	}
	return s
}

func saved(id sections.ID, advance, accept bool, errs, warnings []validation.Result) session.FormSaved {
	return session.FormSaved{
		Section:        id,
		Values:         api.PollingStationResults{},
		Errors:         errs,
		Warnings:       warnings,
		AcceptWarnings: accept,
		Advance:        advance,
	}
}

func TestSubmitRecountedAdvancesFurthest(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s, saved(sections.Recounted, true, false, nil, nil))

	if s.Form.Furthest != sections.VotersVotesCounts {
		t.Fatalf("expected furthest to advance, got %q", s.Form.Furthest)
	}
	if s.TargetSection != sections.VotersVotesCounts {
		t.Fatalf("expected target to be next section, got %q", s.TargetSection)
	}
	sec := s.Form.Sections[sections.Recounted]
	if !sec.IsSaved || !sec.IsSubmitted || sec.HasChanges {
		t.Fatalf("unexpected section flags %+v", sec)
	}
}

func TestWarningWithoutAcceptanceDoesNotAdvance(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s,
		saved(sections.Recounted, true, false, nil, nil),
		session.RegisterCurrentForm{Ref: sections.VotersVotesCountsRef{}},
		saved(sections.VotersVotesCounts, true, false, nil, nil),
		session.RegisterCurrentForm{Ref: sections.DifferencesCountsRef{}},
		session.ResetTargetSection{},
	)
	w301 := validation.NewResult("W301", "data.differences_counts.more_ballots_count")
	s = mustReduce(t, s, saved(sections.DifferencesCounts, true, false, nil, []validation.Result{w301}))

	sec := s.Form.Sections[sections.DifferencesCounts]
	if !sec.IsSaved {
		t.Fatal("expected section to be saved")
	}
	if !sec.Warnings.Includes("W301") || sec.Warnings.Len() != 1 {
		t.Fatalf("expected W301 warning, got %v", sec.Warnings.Codes())
	}
	if s.Form.Furthest != sections.DifferencesCounts {
		t.Fatalf("furthest must not advance, got %q", s.Form.Furthest)
	}
	if s.TargetSection != "" {
		t.Fatalf("no navigation target expected, got %q", s.TargetSection)
	}
	if !sec.AcceptWarningsError {
		t.Fatal("expected the acceptance prompt to be flagged")
	}

	s = mustReduce(t, s, saved(sections.DifferencesCounts, true, true, nil, []validation.Result{w301}))
	if s.Form.Furthest != sections.PoliticalGroupVotes(1) {
		t.Fatalf("accepted warnings must advance, got %q", s.Form.Furthest)
	}
	if s.Form.Sections[sections.DifferencesCounts].AcceptWarningsError {
		t.Fatal("acceptance prompt must clear once accepted")
	}
}

func TestErrorsBlockEvenWhenWarningsAccepted(t *testing.T) {
	s := newSession()
	f101 := validation.NewResult("F101", "data.recounted")
	s = mustReduce(t, s, saved(sections.Recounted, true, true, []validation.Result{f101}, nil))
	if s.Form.Furthest != sections.Recounted {
		t.Fatalf("errors must block, furthest moved to %q", s.Form.Furthest)
	}
	if !s.Form.Sections[sections.Recounted].Errors.Includes("F101") {
		t.Fatal("expected error on submitted section")
	}
}

func TestGlobalErrorsDoNotBlockSection(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s, saved(sections.Recounted, true, false, nil, nil))
	f204 := validation.NewResult("F204", "data.votes_counts.votes_candidates_count")
	s = mustReduce(t, s,
		session.RegisterCurrentForm{Ref: sections.VotersVotesCountsRef{}},
		saved(sections.VotersVotesCounts, true, false, []validation.Result{f204}, nil),
	)
	if s.Form.Furthest != sections.DifferencesCounts {
		t.Fatalf("global error must not block, furthest is %q", s.Form.Furthest)
	}
	if s.Form.CanFinalise() {
		t.Fatal("global error must block finalisation")
	}
}

func TestSavingHistoricalSectionKeepsFurthest(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s,
		saved(sections.Recounted, true, false, nil, nil),
		session.RegisterCurrentForm{Ref: sections.VotersVotesCountsRef{}},
		saved(sections.VotersVotesCounts, true, false, nil, nil),
		session.RegisterCurrentForm{Ref: sections.RecountedRef{}},
		saved(sections.Recounted, true, false, nil, nil),
	)
	if s.Form.Furthest != sections.DifferencesCounts {
		t.Fatalf("furthest must stay, got %q", s.Form.Furthest)
	}
	if s.TargetSection != sections.VotersVotesCounts {
		t.Fatalf("expected target to be the following section, got %q", s.TargetSection)
	}
}

func TestSaveWithoutAdvanceStays(t *testing.T) {
	s := mustReduce(t, newSession(), saved(sections.Recounted, false, false, nil, nil))
	if s.Form.Furthest != sections.Recounted || s.TargetSection != "" {
		t.Fatalf("save without advance must not move, furthest %q target %q", s.Form.Furthest, s.TargetSection)
	}
}

func TestFormSavedClearsErrorAndMatchingCache(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s,
		session.FormSaveFailed{Err: errors.New("boom")},
		session.SetCache{Cache: &session.Cache{Key: sections.Recounted, Data: api.SectionValues{Recounted: session.Bool(true)}}},
		saved(sections.Recounted, true, false, nil, nil),
	)
	if s.Err != nil {
		t.Fatalf("expected error to be cleared, got %v", s.Err)
	}
	if s.Cache != nil {
		t.Fatal("expected cache for the saved section to be cleared")
	}

	other := mustReduce(t, newSession(),
		session.SetCache{Cache: &session.Cache{Key: sections.VotersVotesCounts}},
		saved(sections.Recounted, true, false, nil, nil),
	)
	if other.Cache == nil {
		t.Fatal("cache for another section must survive")
	}
}

func TestStaleFormSavedIsIgnored(t *testing.T) {
	s := newSession()
	s = mustReduce(t, s, session.SessionLoaded{})
	stale := saved(sections.Recounted, true, false, nil, nil)
	stale.Generation = s.Generation - 1
	after := mustReduce(t, s, stale)
	if after.Form.Sections[sections.Recounted].IsSaved {
		t.Fatal("stale response must not be applied")
	}
}

func TestRegisterBeyondFurthestRedirects(t *testing.T) {
	s := mustReduce(t, newSession(), session.RegisterCurrentForm{Ref: sections.DifferencesCountsRef{}})
	if s.Form.Current != sections.Recounted {
		t.Fatalf("current must not move past furthest, got %q", s.Form.Current)
	}
	if s.TargetSection != sections.Recounted {
		t.Fatalf("expected redirect to furthest, got %q", s.TargetSection)
	}
}

func TestRegisterResetsSubmitted(t *testing.T) {
	s := mustReduce(t, newSession(),
		saved(sections.Recounted, true, false, nil, nil),
		session.RegisterCurrentForm{Ref: sections.VotersVotesCountsRef{}},
		session.RegisterCurrentForm{Ref: sections.RecountedRef{}},
	)
	if s.Form.Current != sections.Recounted {
		t.Fatalf("unexpected current %q", s.Form.Current)
	}
	if s.Form.Sections[sections.Recounted].IsSubmitted {
		t.Fatal("submission flag must reset per visit")
	}
}

func TestRegisterUnknownSectionIsInvariant(t *testing.T) {
	s := newSession()
	_, err := session.Reduce(s, session.RegisterCurrentForm{Ref: sections.PoliticalGroupVotesRef{Number: 5}})
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if _, err := session.Reduce(s, session.RegisterCurrentForm{}); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for nil reference, got %v", err)
	}
}

func TestSetStatusRefusesSecondOperation(t *testing.T) {
	s := mustReduce(t, newSession(), session.SetStatus{Status: session.StatusSaving})
	for _, st := range []session.Status{session.StatusSaving, session.StatusDeleting, session.StatusFinalising} {
		_, err := session.Reduce(s, session.SetStatus{Status: st})
		if !errors.Is(err, services.ErrOperationInFlight) {
			t.Fatalf("starting %s while saving: expected in-flight error, got %v", st, err)
		}
	}
	s = mustReduce(t, s, session.SetStatus{Status: session.StatusIdle})
	if s.Status != session.StatusIdle {
		t.Fatalf("unexpected status %q", s.Status)
	}

	closed := mustReduce(t, newSession(), session.SetStatus{Status: session.StatusFinalised})
	if _, err := session.Reduce(closed, session.SetStatus{Status: session.StatusSaving}); !errors.Is(err, services.ErrSessionClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := session.Reduce(newSession(), session.SetStatus{Status: "bogus"}); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for unknown status, got %v", err)
	}
}

func TestEndedSessionIgnoresLateTransitions(t *testing.T) {
	for _, ended := range []session.Status{session.StatusDeleted, session.StatusFinalised, session.StatusAborted} {
		t.Run(ended.String(), func(t *testing.T) {
			s := mustReduce(t, newSession(), session.SetStatus{Status: ended})

			for _, st := range []session.Status{session.StatusIdle, session.StatusSaving, ended} {
				next, err := session.Reduce(s, session.SetStatus{Status: st})
				if !errors.Is(err, services.ErrSessionClosed) {
					t.Fatalf("moving to %s: expected closed error, got %v", st, err)
				}
				if next.Status != ended {
					t.Fatalf("status changed to %q", next.Status)
				}
			}

			failed := mustReduce(t, s, session.FormSaveFailed{Err: errors.New("connection reset")})
			if failed.Status != ended {
				t.Fatalf("save failure must not reopen the session, got %q", failed.Status)
			}
			if failed.Err == nil {
				t.Fatal("expected the failure to be recorded")
			}

			saved := mustReduce(t, s, session.FormSaved{
				Section:    sections.Recounted,
				Advance:    true,
				Generation: s.Generation,
			})
			if saved.Results != nil {
				t.Fatal("late save must not store results")
			}
			if saved.Form.Furthest != sections.Recounted || saved.Form.Sections[sections.Recounted].IsSaved {
				t.Fatalf("late save changed the form: furthest %q", saved.Form.Furthest)
			}
			if saved.TargetSection != "" {
				t.Fatalf("late save set a target %q", saved.TargetSection)
			}
		})
	}
}

func TestUpdateFormSectionResetsAcceptance(t *testing.T) {
	s := mustReduce(t, newSession(),
		session.UpdateFormSection{Update: session.SectionUpdate{AcceptWarnings: session.Bool(true)}},
	)
	if !s.CurrentSection().AcceptWarnings {
		t.Fatal("expected warnings to be accepted")
	}
	s = mustReduce(t, s, session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(true)}})
	sec := s.CurrentSection()
	if !sec.HasChanges || sec.AcceptWarnings {
		t.Fatalf("changing values must reset acceptance, got %+v", sec)
	}
}

func TestFormSaveFailedReturnsToIdle(t *testing.T) {
	boom := errors.New("connection refused")
	s := mustReduce(t, newSession(),
		session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(true)}},
		session.SetStatus{Status: session.StatusSaving},
		session.FormSaveFailed{Err: boom},
	)
	if s.Status != session.StatusIdle || !errors.Is(s.Err, boom) {
		t.Fatalf("unexpected status %q err %v", s.Status, s.Err)
	}
	if !s.CurrentSection().HasChanges {
		t.Fatal("failed save must keep unsaved edits flagged")
	}
}

func TestLoadFailedKeepsState(t *testing.T) {
	s := mustReduce(t, newSession(), saved(sections.Recounted, true, false, nil, nil))
	boom := errors.New("timeout")
	after := mustReduce(t, s, session.LoadFailed{Err: boom})
	if !errors.Is(after.Err, boom) {
		t.Fatalf("expected error to be set, got %v", after.Err)
	}
	if after.Form.Furthest != s.Form.Furthest || !after.Form.Sections[sections.Recounted].IsSaved {
		t.Fatal("load failure must not alter form state")
	}
}

func TestSessionLoadedRestoresCursors(t *testing.T) {
	recounted := false
	loaded := session.SessionLoaded{
		Data: api.PollingStationResults{Recounted: &recounted},
		ClientState: &formstate.ClientState{
			Furthest:         sections.PoliticalGroupVotes(1),
			Current:          sections.VotersVotesCounts,
			AcceptedWarnings: []sections.ID{sections.DifferencesCounts},
			Continue:         true,
		},
		Warnings: []validation.Result{validation.NewResult("W301", "data.differences_counts.more_ballots_count")},
	}
	s := mustReduce(t, newSession(),
		session.LoadFailed{Err: errors.New("earlier failure")},
		session.SetCache{Cache: &session.Cache{Key: sections.Recounted}},
		loaded,
	)
	if s.Err != nil || s.Cache != nil {
		t.Fatalf("load must clear error and cache, got %v %+v", s.Err, s.Cache)
	}
	if s.Results == nil || s.Results.Recounted == nil || *s.Results.Recounted {
		t.Fatalf("unexpected results %+v", s.Results)
	}
	if s.Form.Current != sections.VotersVotesCounts || s.Form.Furthest != sections.PoliticalGroupVotes(2) {
		t.Fatalf("unexpected cursors %q/%q", s.Form.Current, s.Form.Furthest)
	}
	if !s.Form.Sections[sections.PoliticalGroupVotes(1)].IsSaved {
		t.Fatal("the continued section must be saved")
	}
	if s.TargetSection != sections.PoliticalGroupVotes(2) {
		t.Fatalf("continue must target furthest, got %q", s.TargetSection)
	}
	diff := s.Form.Sections[sections.DifferencesCounts]
	if !diff.AcceptWarnings || !diff.Warnings.Includes("W301") {
		t.Fatalf("unexpected differences section %+v", diff)
	}
	if s.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", s.Generation)
	}
}

func TestSessionLoadedDerivesListsFromData(t *testing.T) {
	s := session.New(1, 10, 2, nil)
	s = mustReduce(t, s, session.SessionLoaded{Data: api.PollingStationResults{
		PoliticalGroupVotes: []api.PoliticalGroupVotes{{Number: 1}, {Number: 2}, {Number: 3}},
	}})
	if _, ok := s.Form.Sections[sections.PoliticalGroupVotes(3)]; !ok {
		t.Fatal("expected a section for list 3")
	}
	if len(s.Form.Sections) != 7 {
		t.Fatalf("expected 7 sections, got %d", len(s.Form.Sections))
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := mustReduce(t, newSession(), saved(sections.Recounted, true, false, nil, nil))
	before := s.Clone()
	w := validation.NewResult("W201", "data.votes_counts.blank_votes_count")
	_ = mustReduce(t, s,
		session.RegisterCurrentForm{Ref: sections.VotersVotesCountsRef{}},
		saved(sections.VotersVotesCounts, true, false, nil, []validation.Result{w}),
	)
	if s.Form.Current != before.Form.Current || s.Form.Furthest != before.Form.Furthest {
		t.Fatal("input cursors changed")
	}
	for id, sec := range before.Form.Sections {
		got := s.Form.Sections[id]
		if got.IsSaved != sec.IsSaved || !got.Warnings.Equal(sec.Warnings) {
			t.Fatalf("input section %q changed", id)
		}
	}
}

func TestCursorInvariantsHoldUnderRandomActions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	order := sections.Order(len(lists))
	warning := validation.NewResult("W301", "data.differences_counts.more_ballots_count")
	failure := validation.NewResult("F201", "data.voters_counts.poll_card_count")

	s := newSession()
	for step := 0; step < 2000; step++ {
		var a session.Action
		switch rng.IntN(6) {
		case 0:
			ref, _ := sections.RefFor(order[rng.IntN(len(order))])
			a = session.RegisterCurrentForm{Ref: ref}
		case 1, 2:
			var warns, errs []validation.Result
			if rng.IntN(3) == 0 {
				warns = []validation.Result{warning}
			}
			if rng.IntN(4) == 0 {
				errs = []validation.Result{failure}
			}
			a = session.FormSaved{
				Section:        s.Form.Current,
				Warnings:       warns,
				Errors:         errs,
				AcceptWarnings: rng.IntN(2) == 0,
				Advance:        rng.IntN(4) != 0,
				Generation:     s.Generation,
			}
		case 3:
			a = session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(rng.IntN(2) == 0)}}
		case 4:
			if s.TargetSection != "" {
				ref, _ := sections.RefFor(s.TargetSection)
				a = session.RegisterCurrentForm{Ref: ref}
			} else {
				a = session.ResetTargetSection{}
			}
		default:
			a = session.ResetTargetSection{}
		}

		prevFurthest, _ := s.Form.Index(s.Form.Furthest)
		next, err := session.Reduce(s, a)
		if err != nil {
			t.Fatalf("step %d %s: %v", step, a.Kind(), err)
		}
		cur, _ := next.Form.Index(next.Form.Current)
		furthest, _ := next.Form.Index(next.Form.Furthest)
		if cur > furthest {
			t.Fatalf("step %d: current %q past furthest %q", step, next.Form.Current, next.Form.Furthest)
		}
		if furthest < prevFurthest {
			t.Fatalf("step %d: furthest decreased from %d to %d", step, prevFurthest, furthest)
		}
		for id, sec := range next.Form.Sections {
			if !sec.IsSaved && (!sec.Errors.IsEmpty() || !sec.Warnings.IsEmpty()) {
				t.Fatalf("step %d: unsaved section %q carries feedback", step, id)
			}
		}
		s = next
	}
}
