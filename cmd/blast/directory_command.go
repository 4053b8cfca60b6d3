package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"blast/internal/services"
)

func newDirectoryCommand(ctx *commandContext) *cobra.Command {
	directoryCmd := &cobra.Command{
		Use:   "directory",
		Short: "Maintain artist and project lookups in the local tracking store",
	}

	directoryCmd.AddCommand(&cobra.Command{
		Use:   "artist <display-name> <username>",
		Short: "Map an artist's display name to a login",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.PutArtist(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Artist %q maps to %s\n", args[0], args[1])
			return nil
		},
	})

	directoryCmd.AddCommand(&cobra.Command{
		Use:   "project <name> <fps>",
		Short: "Set a project's frame rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fps, err := strconv.ParseFloat(args[1], 64)
			if err != nil || fps <= 0 {
				return services.Wrap(services.ErrConfiguration, "directory", "parse fps", args[1], err)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.PutProject(cmd.Context(), args[0], fps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s runs at %g fps\n", args[0], fps)
			return nil
		},
	})

	return directoryCmd
}
