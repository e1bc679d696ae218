package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tally/internal/api"
	"tally/internal/navguard"
	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/session"
	"tally/internal/submit"
	"tally/internal/validation"
)

func newEntryCommand(ctx *commandContext) *cobra.Command {
	var flags entryFlags
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Work on a polling station data entry",
	}
	flags.register(entryCmd)

	entryCmd.AddCommand(newEntryShowCommand(ctx, &flags))
	entryCmd.AddCommand(newEntrySubmitCommand(ctx, &flags))
	entryCmd.AddCommand(newEntryStashCommand(ctx, &flags))
	entryCmd.AddCommand(newEntryFinaliseCommand(ctx, &flags))
	entryCmd.AddCommand(newEntryDeleteCommand(ctx, &flags))
	entryCmd.AddCommand(newEntryAbortCommand(ctx, &flags))
	entryCmd.AddCommand(newEntryHistoryCommand(ctx, &flags))
	return entryCmd
}

func newEntryShowCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Load the entry and show section progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				view := buildEntryView(env.store.State())
				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				renderEntry(out, view, newFormatter(env.cfg), isTerminal(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newEntrySubmitCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var (
		file           string
		acceptWarnings bool
		noAdvance      bool
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "submit SECTION",
		Short: "Submit the values of one section",
		Long: "Submit the values of one section. Values are read as JSON from --file " +
			"(use - for stdin); without --file the stored draft or the saved values are resubmitted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				id, err := openSection(env.store, args[0])
				if err != nil {
					return err
				}
				values, edited, err := sectionInput(cmd, env.store.State(), id, file)
				if err != nil {
					return err
				}
				if edited {
					if err := env.store.Dispatch(session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(true)}}); err != nil {
						return err
					}
				}
				if acceptWarnings {
					if err := env.store.Dispatch(session.UpdateFormSection{Update: session.SectionUpdate{AcceptWarnings: session.Bool(true)}}); err != nil {
						return err
					}
				}

				ok, err := env.coordinator.Submit(cmd.Context(), id, values, submit.Options{
					AcceptWarnings:   acceptWarnings,
					AdvanceOnSuccess: !noAdvance,
				})
				if err != nil {
					return err
				}
				state := env.store.State()
				if !ok {
					if !services.IsRecoverable(state.Err) || id != state.Form.Furthest {
						return fmt.Errorf("submit %s: %w", id, state.Err)
					}
					if err := env.store.Dispatch(session.SetCache{Cache: &session.Cache{Key: id, Data: values}}); err != nil {
						return err
					}
					return fmt.Errorf("submit %s: %w (input kept as a draft; run the command again without --file)", id, state.Err)
				}
				sec := buildSectionView(state.Form.Sections[id])
				if asJSON {
					return writeJSON(cmd, struct {
						Section sectionView `json:"section"`
						Next    string      `json:"next,omitempty"`
						Entry   entryView   `json:"entry"`
					}{Section: sec, Next: state.TargetSection.String(), Entry: buildEntryView(state)})
				}

				out := cmd.OutOrStdout()
				tty := isTerminal(out)
				f := newFormatter(env.cfg)
				fmt.Fprintln(out, renderStatusLine("Saved", statusOK, sec.Title, tty))
				renderFeedback(out, sec, tty)
				full := state.Form.Sections[id]
				switch {
				case full.HasBlockingErrors():
					fmt.Fprintln(out, renderStatusLine("Next", statusError, "fix the errors and submit again", tty))
				case full.AcceptWarningsError:
					fmt.Fprintln(out, renderStatusLine("Next", statusWarn, "check the warnings and submit again with --accept-warnings", tty))
				case state.TargetSection != "":
					fmt.Fprintln(out, renderStatusLine("Next", statusInfo, state.TargetSection.String(), tty))
				}
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, f.percent(state.Form.Progress()), tty))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the section values (- for stdin)")
	cmd.Flags().BoolVar(&acceptWarnings, "accept-warnings", false, "Confirm that the section's warnings were checked")
	cmd.Flags().BoolVar(&noAdvance, "no-advance", false, "Stay on the section after saving")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newEntryStashCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stash SECTION",
		Short: "Keep unsaved edits of the frontier section as a local draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				id, err := openSection(env.store, args[0])
				if err != nil {
					return err
				}
				values, _, err := sectionInput(cmd, env.store.State(), id, file)
				if err != nil {
					return err
				}
				if err := env.store.Dispatch(session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(true)}}); err != nil {
					return err
				}

				state := env.store.State()
				guard := navguard.New(env.store, env.coordinator, navguard.EditSourceFunc(func() api.SectionValues { return values }), env.logger)
				from := navguard.SectionPath(state.ElectionID, state.PollingStationID, state.EntryNumber, id)
				to := navguard.BasePath(state.ElectionID, state.PollingStationID, state.EntryNumber)
				prompt, err := guard.Navigate(from, to)
				if err != nil {
					return err
				}
				if prompt != nil {
					return fmt.Errorf("%s is already completed; submit edits to it with `tally entry submit %s`", id, id)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Draft", statusOK, "stored edits for "+id.String(), isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the section values (- for stdin)")
	return cmd
}

func newEntryFinaliseCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "finalise",
		Short: "Finalise a complete entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				state := env.store.State()
				if !state.Form.CanFinalise() {
					var blocking []string
					for _, id := range state.Form.Order() {
						if sec := state.Form.Sections[id]; id != sections.Save && !sec.Complete() {
							blocking = append(blocking, id.String())
						}
					}
					if global := state.Form.GlobalResults(validation.KindErrors); !global.IsEmpty() {
						blocking = append(blocking, "entry errors "+strings.Join(global.Codes(), ", "))
					}
					return fmt.Errorf("entry cannot be finalised yet: %s", joinIDs(blocking))
				}
				if err := env.coordinator.Finalise(cmd.Context()); err != nil {
					env.notifyError(cmd.Context(), err, "finalise")
					return err
				}
				env.notify(cmd.Context(), env.notifier.NotifyFinalised)
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Finalised", statusOK, "", isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func newEntryDeleteCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Discard the entry on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to delete without --yes")
			}
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				if err := env.coordinator.Delete(cmd.Context()); err != nil {
					env.notifyError(cmd.Context(), err, "delete")
					return err
				}
				env.notify(cmd.Context(), env.notifier.NotifyDeleted)
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Deleted", statusWarn, "", isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm deletion")
	return cmd
}

func newEntryAbortCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var (
		file    string
		discard bool
	)
	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Leave the entry, keeping (default) or discarding the input",
		Long: "Leave the entry. By default the current section is saved, with the values " +
			"from --file when given, and the entry is left for later. With --discard the entry is deleted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEntry(cmd.Context(), *flags, func(env *entryEnv) error {
				if target := env.store.State().TargetSection; target != "" {
					if _, err := openSection(env.store, target.String()); err != nil {
						return err
					}
				}
				state := env.store.State()
				values, edited, err := sectionInput(cmd, state, state.Form.Current, file)
				if err != nil {
					return err
				}
				if edited {
					if err := env.store.Dispatch(session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(true)}}); err != nil {
						return err
					}
				}

				guard := navguard.New(env.store, env.coordinator, navguard.EditSourceFunc(func() api.SectionValues { return values }), env.logger)
				from := navguard.SectionPath(state.ElectionID, state.PollingStationID, state.EntryNumber, state.Form.Current)
				to := fmt.Sprintf("/elections/%d/status", state.ElectionID)
				prompt, err := guard.Navigate(from, to)
				if err != nil {
					return err
				}
				if prompt == nil {
					fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Left", statusInfo, "nothing to keep", isTerminal(cmd.OutOrStdout())))
					return nil
				}
				choice := navguard.ChoiceSave
				if discard {
					choice = navguard.ChoiceDiscard
				}
				if _, err := guard.Resolve(cmd.Context(), *prompt, choice); err != nil {
					env.notifyError(cmd.Context(), err, "abort")
					return fmt.Errorf("abort entry: %w", err)
				}
				final := env.store.State().Status
				switch final {
				case session.StatusDeleted:
					env.notify(cmd.Context(), env.notifier.NotifyDeleted)
				case session.StatusAborted:
					env.notify(cmd.Context(), env.notifier.NotifyLeft)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Left", statusOK, final.String(), isTerminal(cmd.OutOrStdout())))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with values for the current section (- for stdin)")
	cmd.Flags().BoolVar(&discard, "discard", false, "Delete the entry instead of saving it")
	return cmd
}

// openSection parses raw and makes it the current section. Sections past the
// furthest completed one cannot be opened.
func openSection(store *session.Store, raw string) (sections.ID, error) {
	state := store.State()
	id, err := sections.Parse(raw, len(state.Form.Groups))
	if err != nil {
		return "", fmt.Errorf("unknown section %q; see `tally sections`", raw)
	}
	ref, _ := sections.RefFor(id)
	if err := store.Dispatch(session.RegisterCurrentForm{Ref: ref}); err != nil {
		return "", err
	}
	next := store.State()
	if err := store.Dispatch(session.ResetTargetSection{}); err != nil {
		return "", fmt.Errorf("reset target section: %w", err)
	}
	if next.Form.Current != id {
		return "", fmt.Errorf("section %s is not reachable yet; continue with %s", id, next.Form.Furthest)
	}
	return id, nil
}

// sectionInput returns the values to submit for id: the decoded --file when
// given, otherwise the cached draft or the saved values. edited reports
// whether new values were supplied.
func sectionInput(cmd *cobra.Command, state session.Session, id sections.ID, file string) (api.SectionValues, bool, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		if cached, ok := state.CachedValues(id); ok {
			return cached, true, nil
		}
		return state.SectionValues(id), false, nil
	}
	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return api.SectionValues{}, false, fmt.Errorf("open values file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var values api.SectionValues
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&values); err != nil {
		return api.SectionValues{}, false, fmt.Errorf("decode values: %w", err)
	}
	return values, true, nil
}
