package api

import "encoding/json"

// VotersCounts holds the admitted voter tallies.
type VotersCounts struct {
	PollCardCount            int `json:"poll_card_count"`
	ProxyCertificateCount    int `json:"proxy_certificate_count"`
	VoterCardCount           int `json:"voter_card_count"`
	TotalAdmittedVotersCount int `json:"total_admitted_voters_count"`
}

// VotesCounts holds the counted ballot tallies.
type VotesCounts struct {
	VotesCandidatesCount int `json:"votes_candidates_count"`
	BlankVotesCount      int `json:"blank_votes_count"`
	InvalidVotesCount    int `json:"invalid_votes_count"`
	TotalVotesCastCount  int `json:"total_votes_cast_count"`
}

// DifferencesCounts explains differences between admitted voters and votes.
type DifferencesCounts struct {
	MoreBallotsCount             int `json:"more_ballots_count"`
	FewerBallotsCount            int `json:"fewer_ballots_count"`
	UnreturnedBallotsCount       int `json:"unreturned_ballots_count"`
	TooFewBallotsHandedOutCount  int `json:"too_few_ballots_handed_out_count"`
	TooManyBallotsHandedOutCount int `json:"too_many_ballots_handed_out_count"`
	OtherExplanationCount        int `json:"other_explanation_count"`
	NoExplanationCount           int `json:"no_explanation_count"`
}

// CandidateVotes is the vote count for one candidate on a list.
type CandidateVotes struct {
	Number int `json:"number"`
	Votes  int `json:"votes"`
}

// PoliticalGroupVotes holds the votes for one list (political group).
type PoliticalGroupVotes struct {
	Number         int              `json:"number"`
	Total          int              `json:"total"`
	CandidateVotes []CandidateVotes `json:"candidate_votes"`
}

// PollingStationResults is the full data entry for a polling station.
type PollingStationResults struct {
	Recounted           *bool                 `json:"recounted,omitempty"`
	VotersCounts        VotersCounts          `json:"voters_counts"`
	VotesCounts         VotesCounts           `json:"votes_counts"`
	VotersRecounts      *VotersCounts         `json:"voters_recounts,omitempty"`
	DifferencesCounts   DifferencesCounts     `json:"differences_counts"`
	PoliticalGroupVotes []PoliticalGroupVotes `json:"political_group_votes"`
}

// ValidationResult is the wire form of one validation finding.
type ValidationResult struct {
	Code   string   `json:"code"`
	Fields []string `json:"fields"`
}

// ValidationResults carries the errors and warnings returned by the server.
type ValidationResults struct {
	Errors   []ValidationResult `json:"errors"`
	Warnings []ValidationResult `json:"warnings"`
}

// LoadResponse is returned by GET on a data entry.
type LoadResponse struct {
	Data              PollingStationResults `json:"data"`
	ClientState       json.RawMessage       `json:"client_state,omitempty"`
	Progress          int                   `json:"progress"`
	ValidationResults ValidationResults     `json:"validation_results"`
}

// SaveRequest is the POST body of a data entry save.
type SaveRequest struct {
	Progress    int                   `json:"progress"`
	Data        PollingStationResults `json:"data"`
	ClientState json.RawMessage       `json:"client_state"`
}

// SaveResponse is returned by a successful save.
type SaveResponse struct {
	ValidationResults ValidationResults `json:"validation_results"`
}

// ErrorResponse is the body the server returns with a non-2xx status.
type ErrorResponse struct {
	Error     string `json:"error"`
	Fatal     bool   `json:"fatal"`
	Reference string `json:"reference"`
}
