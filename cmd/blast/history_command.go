package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blast/internal/tracking"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent blasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.RecentHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []tracking.HistoryEntry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No blasts recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				entity := e.Shot
				if e.Asset != "" {
					entity = e.Asset
				}
				status := e.Status
				if e.ErrorMessage != "" {
					status += ": " + e.ErrorMessage
				}
				rows = append(rows, []string{
					e.CreatedAt.Local().Format(time.DateTime),
					dashIfEmpty(entity),
					e.Format,
					fmt.Sprintf("%d-%d", e.FrameIn, e.FrameOut),
					status,
					dashIfEmpty(e.OutputPath),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Entity", "Format", "Frames", "Status", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				isTerminal(out),
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}
