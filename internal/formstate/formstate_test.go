package formstate_test

import (
	"errors"
	"slices"
	"testing"

	"tally/internal/formstate"
	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/validation"
)

var twoLists = []formstate.PoliticalGroup{
	{Number: 2, Name: "Party B"},
	{Number: 1, Name: "Party A"},
}

func markSaved(t *testing.T, fs formstate.FormState, ids ...sections.ID) {
	t.Helper()
	for _, id := range ids {
		s, err := fs.Section(id)
		if err != nil {
			t.Fatalf("Section(%q): %v", id, err)
		}
		s.IsSaved = true
		if err := fs.Update(s); err != nil {
			t.Fatalf("Update(%q): %v", id, err)
		}
	}
}

func TestNewFormState(t *testing.T) {
	fs := formstate.New(twoLists)
	if fs.Current != sections.Recounted || fs.Furthest != sections.Recounted {
		t.Fatalf("unexpected cursors %q/%q", fs.Current, fs.Furthest)
	}
	if !slices.Equal(fs.Order(), sections.Order(2)) {
		t.Fatalf("unexpected order %v", fs.Order())
	}
	s, _ := fs.Section(sections.PoliticalGroupVotes(1))
	if s.Title != "List 1 - Party A" || s.Index != 3 {
		t.Fatalf("unexpected list section %+v", s)
	}
	if next, ok := fs.Next(sections.PoliticalGroupVotes(2)); !ok || next != sections.Save {
		t.Fatalf("expected save after last list, got %q %v", next, ok)
	}
	if _, ok := fs.Next(sections.Save); ok {
		t.Fatal("save must be the last section")
	}
	if _, err := fs.Section(sections.PoliticalGroupVotes(3)); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestDistributeResultsSkipsUnsavedSections(t *testing.T) {
	fs := formstate.New(twoLists)
	markSaved(t, fs, sections.DifferencesCounts)

	results := []validation.Result{
		validation.NewResult("W301", "data.differences_counts.more_ballots_count"),
		validation.NewResult("W201", "data.votes_counts.blank_votes_count"),
	}
	if err := fs.DistributeResults(results, validation.KindWarnings); err != nil {
		t.Fatalf("DistributeResults: %v", err)
	}
	diff, _ := fs.Section(sections.DifferencesCounts)
	if !diff.Warnings.Includes("W301") || diff.Warnings.Len() != 1 {
		t.Fatalf("unexpected differences warnings %v", diff.Warnings.Codes())
	}
	vv, _ := fs.Section(sections.VotersVotesCounts)
	if !vv.Warnings.IsEmpty() {
		t.Fatalf("unsaved section must not receive results, got %v", vv.Warnings.Codes())
	}
	for _, id := range fs.Order() {
		s := fs.Sections[id]
		if !s.IsSaved && (!s.Errors.IsEmpty() || !s.Warnings.IsEmpty()) {
			t.Fatalf("unsaved section %q carries feedback", id)
		}
	}
}

func TestDistributeResultsIsIdempotent(t *testing.T) {
	fs := formstate.New(twoLists)
	markSaved(t, fs, sections.VotersVotesCounts, sections.PoliticalGroupVotes(1))
	results := []validation.Result{
		validation.NewResult("F204", "data.votes_counts.votes_candidates_count", "data.political_group_votes[0].total"),
	}
	if err := fs.DistributeResults(results, validation.KindErrors); err != nil {
		t.Fatalf("first distribution: %v", err)
	}
	once := fs.Clone()
	if err := fs.DistributeResults(results, validation.KindErrors); err != nil {
		t.Fatalf("second distribution: %v", err)
	}
	for _, id := range fs.Order() {
		if !fs.Sections[id].Errors.Equal(once.Sections[id].Errors) {
			t.Fatalf("section %q changed on second distribution", id)
		}
	}
}

func TestCrossCuttingResultNeedsBothSectionsSaved(t *testing.T) {
	result := validation.NewResult("F401", "data.votes_counts.votes_candidates_count", "data.political_group_votes[0].total")

	both := formstate.New(twoLists)
	markSaved(t, both, sections.VotersVotesCounts, sections.PoliticalGroupVotes(1))
	if err := both.DistributeResults([]validation.Result{result}, validation.KindErrors); err != nil {
		t.Fatalf("DistributeResults: %v", err)
	}
	for _, id := range []sections.ID{sections.VotersVotesCounts, sections.PoliticalGroupVotes(1)} {
		if !both.Sections[id].Errors.Includes("F401") {
			t.Fatalf("expected F401 on %q", id)
		}
	}

	one := formstate.New(twoLists)
	markSaved(t, one, sections.VotersVotesCounts)
	if err := one.DistributeResults([]validation.Result{result}, validation.KindErrors); err != nil {
		t.Fatalf("DistributeResults: %v", err)
	}
	if one.Sections[sections.PoliticalGroupVotes(1)].Errors.Includes("F401") {
		t.Fatal("unsaved list section must not receive F401")
	}
}

func TestDistributeResultsRejectsMalformedPaths(t *testing.T) {
	fs := formstate.New(twoLists)
	err := fs.DistributeResults([]validation.Result{validation.NewResult("F999", "data.bogus.field")}, validation.KindErrors)
	if !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestSectionGating(t *testing.T) {
	fs := formstate.New(twoLists)
	markSaved(t, fs, sections.VotersVotesCounts)
	s, _ := fs.Section(sections.VotersVotesCounts)

	s.Warnings.Add(validation.NewResult("W201", "data.votes_counts.blank_votes_count"))
	if s.CanAdvance() {
		t.Fatal("unaccepted warning must block")
	}
	s.AcceptWarnings = true
	if !s.CanAdvance() {
		t.Fatal("accepted warning must not block")
	}
	s.Errors.Add(validation.NewResult("F201", "data.voters_counts.poll_card_count"))
	if s.CanAdvance() {
		t.Fatal("errors must block even with accepted warnings")
	}

	global := formstate.New(twoLists)
	markSaved(t, global, sections.VotersVotesCounts)
	g, _ := global.Section(sections.VotersVotesCounts)
	g.Errors.Add(validation.NewResult("F204", "data.votes_counts.votes_candidates_count"))
	if !g.CanAdvance() {
		t.Fatal("global errors must not block the section")
	}
	if g.Complete() {
		t.Fatal("global errors must still keep the section incomplete")
	}
}

func TestCanFinaliseAndProgress(t *testing.T) {
	fs := formstate.New(twoLists)
	if fs.CanFinalise() {
		t.Fatal("fresh form cannot be finalised")
	}
	if fs.Progress() != 0 {
		t.Fatalf("expected 0 progress, got %d", fs.Progress())
	}
	order := fs.Order()
	markSaved(t, fs, order[:len(order)-1]...)
	if !fs.CanFinalise() {
		t.Fatal("all data sections saved and clean must be finalisable")
	}
	if got := fs.Progress(); got != 5*100/6 {
		t.Fatalf("unexpected progress %d", got)
	}

	diff := fs.Sections[sections.DifferencesCounts]
	diff.Warnings.Add(validation.NewResult("W301", "data.differences_counts.more_ballots_count"))
	if fs.CanFinalise() {
		t.Fatal("unaccepted warning must block finalisation")
	}
	diff.AcceptWarnings = true
	_ = fs.Update(diff)
	if !fs.CanFinalise() {
		t.Fatal("accepted warning must allow finalisation")
	}
	if got := fs.AcceptedWarnings(); !slices.Equal(got, []sections.ID{sections.DifferencesCounts}) {
		t.Fatalf("unexpected accepted warnings %v", got)
	}
}

func TestGlobalResultsCollected(t *testing.T) {
	fs := formstate.New(twoLists)
	markSaved(t, fs, sections.VotersVotesCounts, sections.PoliticalGroupVotes(1))
	err := fs.ApplyValidation([]validation.Result{
		validation.NewResult("F204", "data.votes_counts.votes_candidates_count", "data.political_group_votes[0].total"),
		validation.NewResult("F201", "data.voters_counts.poll_card_count"),
	}, nil)
	if err != nil {
		t.Fatalf("ApplyValidation: %v", err)
	}
	global := fs.GlobalResults(validation.KindErrors)
	if global.Len() != 1 || !global.Includes("F204") {
		t.Fatalf("unexpected global results %v", global.Codes())
	}
}

func TestCheckCursors(t *testing.T) {
	fs := formstate.New(twoLists)
	if err := fs.CheckCursors(); err != nil {
		t.Fatalf("fresh form: %v", err)
	}
	fs.Current = sections.DifferencesCounts
	if err := fs.CheckCursors(); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}
