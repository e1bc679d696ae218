package sections_test

import (
	"errors"
	"slices"
	"testing"

	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/validation"
)

func TestMapField(t *testing.T) {
	cases := []struct {
		path string
		want sections.ID
	}{
		{"data.recounted", sections.Recounted},
		{"data.votes_counts.blank_votes_count", sections.VotersVotesCounts},
		{"data.voters_counts.poll_card_count", sections.VotersVotesCounts},
		{"data.voters_recounts.total_admitted_voters_count", sections.VotersVotesCounts},
		{"data.differences_counts.more_ballots_count", sections.DifferencesCounts},
		{"data.political_group_votes[0].total", sections.PoliticalGroupVotes(1)},
		{"data.political_group_votes[2].total", sections.PoliticalGroupVotes(3)},
		{"data.political_group_votes[1].candidate_votes[4].votes", sections.PoliticalGroupVotes(2)},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := sections.MapField(tc.path)
			if err != nil {
				t.Fatalf("MapField returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("MapField(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestMapFieldRejectsMalformedPaths(t *testing.T) {
	for _, path := range []string{
		"",
		"data",
		"data.unknown_counts.x",
		"data.political_group_votes",
		"data.political_group_votes[x].total",
		"data.political_group_votes[-1].total",
		"data.political_group_votes[1.total",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := sections.MapField(path)
			if err == nil {
				t.Fatalf("expected error for %q", path)
			}
			if !errors.Is(err, services.ErrInvariant) {
				t.Fatalf("expected invariant violation, got %v", err)
			}
		})
	}
}

func TestForResultUnionsSections(t *testing.T) {
	r := validation.NewResult("F204",
		"data.votes_counts.votes_candidates_count",
		"data.political_group_votes[0].total",
		"data.votes_counts.total_votes_cast_count",
	)
	got, err := sections.ForResult(r)
	if err != nil {
		t.Fatalf("ForResult returned error: %v", err)
	}
	want := []sections.ID{sections.VotersVotesCounts, sections.PoliticalGroupVotes(1)}
	if !slices.Equal(got, want) {
		t.Fatalf("ForResult = %v, want %v", got, want)
	}
}

func TestOrderAndIndex(t *testing.T) {
	order := sections.Order(2)
	want := []sections.ID{
		sections.Recounted,
		sections.VotersVotesCounts,
		sections.DifferencesCounts,
		sections.PoliticalGroupVotes(1),
		sections.PoliticalGroupVotes(2),
		sections.Save,
	}
	if !slices.Equal(order, want) {
		t.Fatalf("Order(2) = %v", order)
	}
	for i, id := range order {
		idx, err := sections.Index(id, 2)
		if err != nil {
			t.Fatalf("Index(%q): %v", id, err)
		}
		if idx != i {
			t.Fatalf("Index(%q) = %d, want %d", id, idx, i)
		}
	}
	if _, err := sections.Index(sections.PoliticalGroupVotes(3), 2); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error for list beyond election, got %v", err)
	}
}

func TestRefForRoundTrip(t *testing.T) {
	for _, id := range sections.Order(3) {
		ref, ok := sections.RefFor(id)
		if !ok {
			t.Fatalf("no reference for %q", id)
		}
		if ref.SectionID() != id {
			t.Fatalf("reference for %q points at %q", id, ref.SectionID())
		}
	}
	if _, ok := sections.RefFor("bogus"); ok {
		t.Fatal("expected no reference for unknown id")
	}
}
