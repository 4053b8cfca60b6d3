package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"blast/internal/blast"
	"blast/internal/catalog"
	"blast/internal/scene/script"
)

// runFlagAliases maps the lowercase spellings older wrappers pass.
var runFlagAliases = map[string]string{
	"runffmpeg": "runTranscode",
	"nocdl":     "noCDL",
	"nolut":     "noLUT",
	"noaudio":   "noAudio",
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var req blast.JobRequest
	var formatsFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <comp>",
		Short: "Produce the requested formats from a composition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Comp = args[0]
			req.Formats = splitFormats(req.Formats)

			cat, err := catalog.Load(formatsFile)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			be, err := ctx.openBackend(runCtx)
			if err != nil {
				return err
			}
			defer be.Close()

			opts := []blast.Option{blast.WithShotData(be.source)}
			if be.history != nil {
				opts = append(opts, blast.WithHistory(be.history))
			}
			engine := blast.New(cfg, script.New(cfg.Render, logger), logger, opts...)

			outcomes, runErr := engine.Run(runCtx, req, cat)
			if asJSON {
				if err := writeJSON(cmd, runReport{Outcomes: outcomes, Error: errorText(runErr)}); err != nil {
					return err
				}
			} else if len(outcomes) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderOutcomes(outcomes, isTerminal(cmd.OutOrStdout())))
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVarP(&req.Formats, "formats", "t", nil, "Formats to produce, in order")
	flags.StringVarP(&formatsFile, "formatsfile", "k", "", "Format catalog JSON file")
	flags.StringVarP(&req.File, "file", "f", "", "Input plate or movie")
	flags.StringVarP(&req.Notes, "notes", "n", "", "Slate and burn-in notes")
	flags.StringVarP(&req.Filename, "filename", "g", "", "Output filename pattern")
	flags.StringVarP(&req.Artist, "artist", "a", "", "Artist display name")
	flags.StringVarP(&req.Output, "output", "o", "", "Output directory")
	flags.IntVarP(&req.FrameIn, "framein", "i", 0, "First frame (0 with frameout 0 uses the input range)")
	flags.IntVarP(&req.FrameOut, "frameout", "j", 0, "Last frame")
	flags.StringVarP(&req.ClientShotName, "clientShotName", "c", "", "Client facing shot name")
	flags.StringVarP(&req.Version, "version", "v", "", "Version label")
	flags.StringVarP(&req.Project, "project", "p", "", "Tracking project")
	flags.StringVarP(&req.Shot, "shot", "s", "", "Tracking shot")
	flags.StringVarP(&req.Asset, "asset", "b", "", "Tracking asset")
	flags.BoolVar(&req.ApplyDistortion, "applyDistortion", false, "Apply the distortion ST map")
	flags.BoolVar(&req.ApplyUndistortion, "applyUndistortion", false, "Apply the undistortion ST map")
	flags.BoolVar(&req.ApplyPostmove, "applyPostmove", false, "Apply the postmove composition")
	flags.BoolVar(&req.CreateSlate, "createSlate", false, "Render a slate frame ahead of the range")
	flags.BoolVar(&req.RunTranscode, "runTranscode", false, "Encode intermediate frames into a movie")
	flags.BoolVar(&req.NoCDL, "noCDL", false, "Disable the CDL stage")
	flags.BoolVar(&req.NoLUT, "noLUT", false, "Disable the LUT stage")
	flags.BoolVar(&req.NoAudio, "noAudio", false, "Skip audio and color lookups")
	flags.BoolVar(&asJSON, "json", false, "Print outcomes as JSON")
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := runFlagAliases[name]; ok {
			name = canonical
		}
		return pflag.NormalizedName(name)
	})
	_ = cmd.MarkFlagRequired("formats")
	_ = cmd.MarkFlagRequired("formatsfile")

	return cmd
}

type runReport struct {
	Outcomes []blast.Outcome `json:"outcomes"`
	Error    string          `json:"error,omitempty"`
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// splitFormats accepts both repeated flags and a single quoted,
// space separated list.
func splitFormats(values []string) []string {
	var out []string
	for _, value := range values {
		out = append(out, strings.Fields(value)...)
	}
	return out
}

func renderOutcomes(outcomes []blast.Outcome, boxed bool) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		output := o.OutputPath
		if o.Movie != "" && o.TranscodeError == "" {
			output = o.Movie
		}
		status := "rendered"
		switch {
		case o.TranscodeError != "":
			status = "transcode failed"
		case o.Movie != "":
			status = "transcoded"
		}
		rows = append(rows, []string{
			o.Format,
			fmt.Sprintf("%d-%d", o.Frames.In, o.Frames.Out),
			status,
			strconv.Itoa(o.Warnings),
			o.Duration.Round(time.Millisecond).String(),
			output,
		})
	}
	return renderTable(
		[]string{"Format", "Frames", "Status", "Warnings", "Took", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft},
		boxed,
	)
}
