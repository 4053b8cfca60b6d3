package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"blast/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Format catalog utilities",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:         "validate <file>",
		Short:       "Parse a catalog and list its formats",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, cat.Len())
			for _, name := range cat.Names() {
				spec, err := cat.Lookup(name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					name,
					spec.InputNode + " -> " + spec.OutputNode,
					dashIfEmpty(spec.Ext),
					spec.Colorspace,
					stages(spec),
					yesNo(spec.RunTranscode),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Format", "Nodes", "Ext", "Colorspace", "Stages", "Transcode"},
				rows, nil, isTerminal(out),
			))
			fmt.Fprintf(out, "%d formats valid\n", cat.Len())
			return nil
		},
	})
	return catalogCmd
}

func stages(spec catalog.FormatSpec) string {
	var parts []string
	if spec.SlateNode != "" {
		parts = append(parts, "slate")
	}
	if spec.DistortionNode != "" {
		parts = append(parts, "distortion")
	}
	if spec.CDLNode != "" {
		parts = append(parts, "cdl")
	}
	if spec.LUTNode != "" {
		parts = append(parts, "lut")
	}
	if spec.TimecodeNode != "" {
		parts = append(parts, "timecode")
	}
	switch {
	case spec.SingleFrame:
		parts = append(parts, "single")
	case spec.FML:
		parts = append(parts, "fml")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
