package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blast/internal/deps"
	"blast/internal/preflight"
	"blast/internal/services"
)

type doctorReport struct {
	Checks []preflight.Result `json:"checks"`
	Deps   []dependencyReport `json:"dependencies"`
}

type dependencyReport struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Resolved  string `json:"resolved,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, tracking and external programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			statuses := preflight.CheckSystemDeps(cfg)

			failures := len(preflight.Failed(results)) + len(deps.Missing(statuses))

			if asJSON {
				report := doctorReport{Checks: results}
				for _, s := range statuses {
					report.Deps = append(report.Deps, dependencyReport{
						Name:      s.Name,
						Command:   s.Command,
						Optional:  s.Optional,
						Available: s.Available,
						Resolved:  s.Resolved,
						Detail:    s.Detail,
					})
				}
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				fmt.Fprintln(out, renderSectionHeader("Programs", colorize))
				for _, s := range statuses {
					fmt.Fprintln(out, renderStatusLine(s.Name, dependencyKind(s), dependencyDetail(s), colorize))
				}
			}

			if failures > 0 {
				return services.Wrap(services.ErrResource, "doctor", "check", fmt.Sprintf("%d checks failed", failures), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func dependencyKind(s deps.Status) statusKind {
	switch {
	case s.Available:
		return statusOK
	case s.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyDetail(s deps.Status) string {
	if s.Available {
		return s.Resolved
	}
	if s.Detail != "" {
		return s.Detail
	}
	return s.Command + " not found"
}
