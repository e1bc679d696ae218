package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/journal"
)

func newEntryHistoryCommand(ctx *commandContext, flags *entryFlags) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded activity for the entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			j, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			events, err := j.History(cmd.Context(), flags.pollingStation, flags.entryNumber, limit)
			if err != nil {
				return err
			}
			if asJSON {
				if events == nil {
					events = []journal.Event{}
				}
				return writeJSON(cmd, events)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No recorded activity")
				return nil
			}
			f := newFormatter(cfg)
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					ev.CreatedAt.Local().Format(time.DateTime),
					ev.Action,
					ev.Status,
					ev.Current,
					ev.Furthest,
					f.percent(ev.Progress),
					ev.Error,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Action", "Status", "Current", "Furthest", "Progress", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				isTerminal(out),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of most recent events to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
