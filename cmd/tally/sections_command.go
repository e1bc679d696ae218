package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/formstate"
	"tally/internal/navguard"
)

type sectionInfo struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

func newSectionsCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  entryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List the data entry sections for the configured election",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			form := formstate.New(ctx.groups())
			infos := make([]sectionInfo, 0, len(form.Sections))
			for _, id := range form.Order() {
				sec := form.Sections[id]
				infos = append(infos, sectionInfo{
					ID:    id.String(),
					Index: sec.Index,
					Title: sec.Title,
					Path:  navguard.SectionPath(cfg.Election.ID, flags.pollingStation, flags.entryNumber, id),
				})
			}
			if asJSON {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{strconv.Itoa(info.Index + 1), info.ID, info.Title, info.Path})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"#", "Section", "Title", "Page"}, rows, []columnAlignment{alignRight}, isTerminal(out)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
