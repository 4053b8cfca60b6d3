package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"blast/internal/shotdata"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage published versions in the local tracking store",
	}
	versionsCmd.AddCommand(newVersionsAddCommand(ctx))
	versionsCmd.AddCommand(newVersionsListCommand(ctx))
	return versionsCmd
}

func newVersionsAddCommand(ctx *commandContext) *cobra.Command {
	var rec shotdata.Record

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a version record",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec.PathToMovie = shotdata.NormalizePath(rec.PathToMovie)
			rec.PathToFrames = shotdata.NormalizePath(rec.PathToFrames)
			saved, err := store.AddVersion(cmd.Context(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s v%03d (id %d)\n", saved.Entity, saved.VersionType, saved.Number, saved.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&rec.Project, "project", "", "Project name")
	flags.StringVar(&rec.Entity, "entity", "", "Shot or asset the version belongs to")
	flags.StringVar(&rec.VersionType, "type", "", "Version type, e.g. \"Flat Plate\" or \"cdl\"")
	flags.StringVar(&rec.Variation, "variation", "", "Variation, e.g. Distorted or 3DL")
	flags.StringVar(&rec.Status, "status", "", "Review status")
	flags.IntVar(&rec.Number, "number", 0, "Version number (next free number when zero)")
	flags.StringVar(&rec.PathToMovie, "movie", "", "Path to the published movie")
	flags.StringVar(&rec.PathToFrames, "frames", "", "Path to the published frames")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newVersionsListCommand(ctx *commandContext) *cobra.Command {
	var q shotdata.Query
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListVersions(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				if records == nil {
					records = []shotdata.Record{}
				}
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No versions found")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				path := r.PathToFrames
				if path == "" {
					path = r.PathToMovie
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.Project,
					r.Entity,
					r.VersionType,
					dashIfEmpty(r.Variation),
					strconv.Itoa(r.Number),
					dashIfEmpty(r.Status),
					dashIfEmpty(path),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Project", "Entity", "Type", "Variation", "Number", "Status", "Path"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				isTerminal(out),
			))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Project, "project", "", "Filter by project")
	flags.StringVar(&q.Entity, "entity", "", "Filter by shot or asset")
	flags.StringVar(&q.VersionType, "type", "", "Filter by version type")
	flags.StringVar(&q.Variation, "variation", "", "Filter by variation")
	flags.StringVar(&q.Status, "status", "", "Filter by status")
	flags.BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}
