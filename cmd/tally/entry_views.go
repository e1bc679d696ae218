package main

import (
	"fmt"
	"io"
	"strings"

	"tally/internal/formstate"
	"tally/internal/session"
	"tally/internal/validation"
)

type sectionView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Saved      bool     `json:"saved"`
	HasChanges bool     `json:"has_changes"`
	Accepted   bool     `json:"accept_warnings"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

type entryView struct {
	PollingStationID int64         `json:"polling_station_id"`
	EntryNumber      int           `json:"entry_number"`
	Status           string        `json:"status"`
	Current          string        `json:"current"`
	Furthest         string        `json:"furthest"`
	Progress         int           `json:"progress"`
	CanFinalise      bool          `json:"can_finalise"`
	Draft            string        `json:"draft,omitempty"`
	Error            string        `json:"error,omitempty"`
	GlobalErrors     []string      `json:"global_errors"`
	GlobalWarnings   []string      `json:"global_warnings"`
	Sections         []sectionView `json:"sections"`
}

func buildEntryView(s session.Session) entryView {
	view := entryView{
		PollingStationID: s.PollingStationID,
		EntryNumber:      s.EntryNumber,
		Status:           s.Status.String(),
		Current:          s.Form.Current.String(),
		Furthest:         s.Form.Furthest.String(),
		Progress:         s.Form.Progress(),
		CanFinalise:      s.Form.CanFinalise(),
		GlobalErrors:     describeResults(s.Form.GlobalResults(validation.KindErrors)),
		GlobalWarnings:   describeResults(s.Form.GlobalResults(validation.KindWarnings)),
	}
	if s.Cache != nil {
		view.Draft = s.Cache.Key.String()
	}
	if s.Err != nil {
		view.Error = s.Err.Error()
	}
	for _, id := range s.Form.Order() {
		view.Sections = append(view.Sections, buildSectionView(s.Form.Sections[id]))
	}
	return view
}

func buildSectionView(sec formstate.Section) sectionView {
	return sectionView{
		ID:         sec.ID.String(),
		Title:      sec.Title,
		Saved:      sec.IsSaved,
		HasChanges: sec.HasChanges,
		Accepted:   sec.AcceptWarnings,
		Errors:     describeResults(sec.Errors),
		Warnings:   describeResults(sec.Warnings),
	}
}

func describeResults(set *validation.ResultSet) []string {
	out := []string{}
	for _, r := range set.Results() {
		out = append(out, r.String())
	}
	return out
}

func renderEntry(w io.Writer, view entryView, f formatter, tty bool) {
	header := fmt.Sprintf("Polling station %d, entry %d", view.PollingStationID, view.EntryNumber)
	for _, line := range renderSectionHeader(header, tty) {
		fmt.Fprintln(w, line)
	}

	statusKindFor := statusInfo
	switch view.Status {
	case "finalised":
		statusKindFor = statusOK
	case "deleted", "aborted":
		statusKindFor = statusWarn
	}
	fmt.Fprintln(w, renderStatusLine("Status", statusKindFor, f.label(view.Status), tty))
	fmt.Fprintln(w, renderStatusLine("Current", statusInfo, view.Current, tty))
	fmt.Fprintln(w, renderStatusLine("Furthest", statusInfo, view.Furthest, tty))
	fmt.Fprintln(w, renderStatusLine("Progress", statusInfo, f.percent(view.Progress), tty))
	if view.Draft != "" {
		fmt.Fprintln(w, renderStatusLine("Draft", statusWarn, "unsaved edits for "+view.Draft, tty))
	}
	if view.Error != "" {
		fmt.Fprintln(w, renderStatusLine("Last error", statusError, view.Error, tty))
	}
	if view.CanFinalise {
		fmt.Fprintln(w, renderStatusLine("Finalise", statusOK, "ready", tty))
	} else {
		fmt.Fprintln(w, renderStatusLine("Finalise", statusWarn, "not ready", tty))
	}
	for _, e := range view.GlobalErrors {
		fmt.Fprintln(w, renderStatusLine("Entry error", statusError, e, tty))
	}
	for _, warn := range view.GlobalWarnings {
		fmt.Fprintln(w, renderStatusLine("Entry warning", statusWarn, warn, tty))
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(view.Sections))
	for _, sec := range view.Sections {
		marker := ""
		if sec.ID == view.Current {
			marker = ">"
		}
		rows = append(rows, []string{
			marker,
			sec.ID,
			sec.Title,
			yesNo(sec.Saved),
			f.count(len(sec.Errors)),
			f.count(len(sec.Warnings)),
			yesNo(sec.Accepted),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"", "Section", "Title", "Saved", "Errors", "Warnings", "Accepted"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		tty,
	))
}

func renderFeedback(w io.Writer, sec sectionView, tty bool) {
	for _, e := range sec.Errors {
		fmt.Fprintln(w, renderStatusLine("Error", statusError, e, tty))
	}
	for _, warn := range sec.Warnings {
		fmt.Fprintln(w, renderStatusLine("Warning", statusWarn, warn, tty))
	}
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
