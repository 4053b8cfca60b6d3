package blast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"blast/internal/catalog"
	"blast/internal/colorpipe"
	"blast/internal/logging"
	"blast/internal/outputs"
	"blast/internal/scene"
	"blast/internal/services"
	"blast/internal/transcode"
)

// runState is what the session accumulates across formats of one run.
type runState struct {
	// postmove is the head node of the postmove spliced into the session.
	postmove string
}

// formatRun holds the state of one format while it is being produced.
type formatRun struct {
	engine *Engine
	sc     scene.Adapter
	logger *slog.Logger
	req    JobRequest
	flags  Flags
	spec   catalog.FormatSpec
	run    *runState
	out    Outcome
}

func (r *formatRun) warn(msg, eventType string, attrs ...logging.Attr) {
	r.out.Warnings++
	logging.WarnWithContext(r.logger, msg, eventType, attrs...)
}

func (e *Engine) runFormat(ctx context.Context, session *scene.Session, run *runState, req JobRequest, spec catalog.FormatSpec, user string) (Outcome, error) {
	started := e.now()
	r := &formatRun{
		engine: e,
		sc:     session.Adapter(),
		logger: logging.WithContext(ctx, e.logger),
		req:    req,
		flags:  req.Flags,
		spec:   spec,
		run:    run,
		out:    Outcome{Format: spec.Name},
	}
	defer func() { r.out.Duration = e.now().Sub(started) }()

	if err := r.bindNodes(ctx); err != nil {
		return r.out, err
	}
	frames, err := r.resolveFrames()
	if err != nil {
		return r.out, err
	}
	r.out.Frames = frames
	if frames.Slated {
		r.out.SlateLabel = frames.SlateLabel()
	}
	r.decorate(frames)

	plan, err := r.configureOutput()
	if err != nil {
		return r.out, err
	}
	r.out.OutputPath = plan.Path
	r.setTimecode(frames.In)

	if req.Shot != "" {
		r.applyShotData(services.WithStep(ctx, "shotdata"))
	}

	checkpoint := filepath.Join(
		BackupDir(e.cfg.Paths, req.Project, req.Shot, req.Asset),
		CheckpointName(req.tag(), user, e.now(), spec.Name, r.sc.SessionExt()),
	)
	r.out.Checkpoint = checkpoint
	if err := session.Checkpoint(services.WithStep(ctx, "checkpoint"), checkpoint); err != nil {
		return r.out, fmt.Errorf("format %s: %w", spec.Name, err)
	}
	r.logger.Info("render starting",
		logging.String("node", spec.OutputNode),
		logging.Int("frame_in", frames.In),
		logging.Int("frame_out", frames.Out),
		logging.Int("step", frames.Step),
		logging.String("output", plan.Path),
	)
	if err := session.Render(services.WithStep(ctx, "render"), spec.OutputNode, frames.In, frames.Out, frames.Step); err != nil {
		return r.out, fmt.Errorf("format %s: render: %w", spec.Name, err)
	}

	if r.wantsTranscode() {
		r.transcode(services.WithStep(ctx, "transcode"), plan, frames, filepath.Dir(checkpoint))
	}
	r.logger.Info("format complete",
		logging.String("output", r.out.OutputPath),
		logging.Int("warnings", r.out.Warnings),
	)
	return r.out, nil
}

// bindNodes resolves the format's nodes, binds the input sequence and
// derives the output extension.
func (r *formatRun) bindNodes(ctx context.Context) error {
	spec := r.spec
	for _, node := range []string{spec.InputNode, spec.OutputNode} {
		if !r.sc.HasNode(node) {
			return services.Wrap(services.ErrConfiguration, "blast", "bind nodes",
				fmt.Sprintf("format %q: node %q not found", spec.Name, node), scene.ErrNodeNotFound)
		}
	}
	if r.req.File != "" {
		if err := r.sc.SetParam(spec.InputNode, "file", r.req.File); err != nil {
			return services.Wrap(services.ErrConfiguration, "blast", "bind input", spec.InputNode, err)
		}
	}

	if spec.ImportFlattenedPlate != "" {
		if r.req.Shot == "" {
			r.logger.Info("plate import needs a shot; skipped", logging.String("node", spec.ImportFlattenedPlate))
		} else if err := r.engine.colors.ImportPlate(ctx, r.sc, spec.ImportFlattenedPlate, r.req.Project, r.req.Shot); err != nil {
			r.warn("plate import failed", "plate_import_failed",
				logging.String("node", spec.ImportFlattenedPlate),
				logging.Error(err),
				logging.String(logging.FieldImpact, "format renders without the flattened plate"),
			)
		}
	}

	if spec.Ext == "" {
		value, _ := r.sc.Param(spec.InputNode, "file")
		file, _ := value.(string)
		ext := path.Ext(strings.ReplaceAll(file, `\`, "/"))
		if ext == "" {
			return services.Wrap(services.ErrConfiguration, "blast", "resolve ext",
				fmt.Sprintf("format %q has no ext and input %q has no extension", spec.Name, file), nil)
		}
		r.spec = spec.WithExt(ext)
	}
	r.out.Ext = r.spec.Ext
	return nil
}

func (r *formatRun) resolveFrames() (Frames, error) {
	spec := r.spec
	var nativeIn, nativeOut int
	if r.req.FrameIn == 0 && r.req.FrameOut == 0 {
		first, last, err := r.sc.NativeRange(spec.InputNode)
		if err != nil {
			return Frames{}, services.Wrap(services.ErrConfiguration, "blast", "native range", spec.InputNode, err)
		}
		nativeIn, nativeOut = first, last
	}
	frames := ResolveFrames(r.req.FrameIn, r.req.FrameOut, nativeIn, nativeOut, spec, r.flags.CreateSlate)

	for _, p := range []struct {
		name  string
		value int
	}{{"first", frames.First}, {"last", frames.Last}} {
		if err := r.sc.SetParam(spec.InputNode, p.name, p.value); err != nil {
			return Frames{}, services.Wrap(services.ErrConfiguration, "blast", "input range", spec.InputNode, err)
		}
		if r.sc.HasParam(spec.OutputNode, p.name) {
			if err := r.sc.SetParam(spec.OutputNode, p.name, p.value); err != nil {
				return Frames{}, services.Wrap(services.ErrConfiguration, "blast", "output range", spec.OutputNode, err)
			}
		}
	}

	if spec.OverrideJpegColorspace != "" {
		if depth, ok := r.sc.Metadata(spec.InputNode, "input/bitsperchannel"); ok && depth == "8-bit fixed" {
			if err := r.sc.SetParam(spec.InputNode, "colorspace", spec.OverrideJpegColorspace); err != nil {
				r.warn("colorspace override failed", "colorspace_override_failed",
					logging.String("colorspace", spec.OverrideJpegColorspace),
					logging.Error(err),
				)
			}
		}
	}

	if err := r.sc.SetRoot("first_frame", frames.In); err != nil {
		return Frames{}, services.Wrap(services.ErrResource, "blast", "root range", "first_frame", err)
	}
	if err := r.sc.SetRoot("last_frame", frames.Out); err != nil {
		return Frames{}, services.Wrap(services.ErrResource, "blast", "root range", "last_frame", err)
	}
	return frames, nil
}

// decorate fills the slate switch keys, burn-in and slate text.
func (r *formatRun) decorate(frames Frames) {
	spec := r.spec
	if r.flags.CreateSlate && spec.SlateSwitch != "" {
		keys := []scene.Key{{Frame: frames.In, Value: 0}, {Frame: frames.In + 1, Value: 1}}
		if err := r.sc.SetKeys(spec.SlateSwitch, "which", keys); err != nil {
			r.warn("slate switch keys failed", "slate_failed",
				logging.String("node", spec.SlateSwitch),
				logging.Error(err),
				logging.String(logging.FieldImpact, "slate frame may not lead the render"),
			)
		}
	}

	if r.sc.HasNode(catalog.BurninNode) {
		clientShot := r.req.ClientShotName
		if r.req.Version != "" {
			clientShot = clientShot + "_" + r.req.Version
		}
		r.setText(catalog.BurninNode, []textParam{
			{"notes", r.req.Notes},
			{"clientShotName", clientShot},
			{"artist", r.req.Artist},
		})
	} else {
		r.logger.Info("no burnin node; skipped")
	}

	if spec.SlateNode != "" && r.sc.HasNode(spec.SlateNode) {
		r.setText(spec.SlateNode, []textParam{
			{"notes", r.req.Notes},
			{"clientshot", r.req.ClientShotName},
			{"version", r.req.Version},
			{"frames", frames.SlateLabel()},
		})
	}
}

type textParam struct {
	name  string
	value string
}

func (r *formatRun) setText(node string, params []textParam) {
	for _, p := range params {
		if !r.sc.HasParam(node, p.name) {
			r.logger.Debug("text parameter missing; skipped", logging.String("node", node), logging.String("param", p.name))
			continue
		}
		if err := r.sc.SetParam(node, p.name, p.value); err != nil {
			r.warn("text parameter failed", "text_param_failed",
				logging.String("node", node),
				logging.String("param", p.name),
				logging.Error(err),
			)
		}
	}
}

func (r *formatRun) configureOutput() (outputs.Plan, error) {
	spec := r.spec
	plan := outputs.Build(r.req.Output, r.req.Filename, spec)
	if err := os.MkdirAll(filepath.FromSlash(plan.Dir), 0o755); err != nil {
		return plan, services.Wrap(services.ErrResource, "blast", "output dir", plan.Dir, err)
	}
	for _, p := range plan.Params {
		if outputs.IsOptional(p.Name) && !r.sc.HasParam(spec.OutputNode, p.Name) {
			continue
		}
		if err := r.sc.SetParam(spec.OutputNode, p.Name, p.Value); err != nil {
			return plan, services.Wrap(services.ErrConfiguration, "blast", "output node", spec.OutputNode, err)
		}
	}
	return plan, nil
}

func (r *formatRun) setTimecode(frame int) {
	node := r.spec.TimecodeNode
	if node == "" || !r.sc.HasNode(node) {
		return
	}
	err := r.sc.SetParam(node, "useFrame", true)
	if err == nil {
		err = r.sc.SetParam(node, "frame", frame)
	}
	if err != nil {
		r.warn("timecode failed", "timecode_failed", logging.String("node", node), logging.Error(err))
	}
}

// applyShotData runs the shot-dependent color steps in their fixed order.
func (r *formatRun) applyShotData(ctx context.Context) {
	colors := r.engine.colors
	spec, project, shot := r.spec, r.req.Project, r.req.Shot

	if r.flags.NoLUT || !colors.Available() {
		r.check("lut bypass", colorpipe.BypassLUT(r.sc, spec))
	}
	if r.flags.NoCDL || !colors.Available() {
		r.check("cdl bypass", colorpipe.BypassCDL(r.sc, spec))
	}

	if r.flags.ApplyPostmove {
		head, err := colors.ApplyPostmove(ctx, r.sc, spec.InputNode, project, shot, r.run.postmove)
		if head != "" {
			r.run.postmove = head
		}
		r.check("postmove", err)
	} else if r.flags.ApplyDistortion {
		if _, err := colors.FindPostmove(ctx, project, shot); err == nil {
			r.logger.Info("postmove exists upstream; distortion disabled for this format")
			r.flags.ApplyDistortion = false
		}
	}
	if r.flags.ApplyDistortion {
		r.check("distortion", colors.ApplyDistortion(ctx, r.sc, spec, project, shot, true))
	}
	if r.flags.ApplyUndistortion {
		r.check("undistortion", colors.ApplyDistortion(ctx, r.sc, spec, project, shot, false))
	}

	if !r.flags.NoAudio {
		audio, err := colors.AttachAudio(ctx, r.sc, spec.OutputNode, project, shot)
		r.check("audio", err)
		r.out.Audio = audio
		if colors.Available() {
			r.check("cdl", colors.ApplyCDL(ctx, r.sc, spec, project, shot))
			r.check("3dl", colors.Apply3DL(ctx, r.sc, spec, project, shot))
		}
	}
}

func (r *formatRun) check(step string, err error) {
	if err == nil {
		return
	}
	r.warn(step+" failed", strings.ReplaceAll(step, " ", "_")+"_failed",
		logging.String(logging.FieldStep, step),
		logging.Error(err),
		logging.String(logging.FieldImpact, step+" skipped for this format"),
	)
}

func (r *formatRun) wantsTranscode() bool {
	return r.flags.RunTranscode &&
		r.spec.RunTranscode &&
		strings.EqualFold(r.spec.Ext, r.engine.cfg.Transcode.IntermediateExt)
}

func (r *formatRun) transcode(ctx context.Context, plan outputs.Plan, frames Frames, commandDir string) {
	res, err := r.engine.transcoder.Transcode(ctx, transcode.Request{
		FrameStart: frames.In,
		Pattern:    outputs.SequencePattern(plan.Path),
		Audio:      r.out.Audio,
		Project:    r.req.Project,
		Shot:       r.req.Shot,
		Asset:      r.req.Asset,
		CommandDir: commandDir,
	})
	r.out.Movie = res.Movie
	r.out.CommandFile = res.CommandFile
	if err != nil {
		r.out.TranscodeError = err.Error()
		attrs := []logging.Attr{
			logging.String("pattern", outputs.SequencePattern(plan.Path)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "replay the command file to see the encoder output"),
			logging.String(logging.FieldImpact, "rendered frames kept, no review movie"),
		}
		var execErr *services.ExecutionError
		if errors.As(err, &execErr) && res.CommandFile != "" {
			attrs = append(attrs, logging.String("command_file", res.CommandFile))
		}
		r.warn("transcode failed", "transcode_failed", attrs...)
		return
	}
	removed, err := transcode.RemoveFrames(plan.Path, frames.In, frames.Out)
	r.out.FramesRemoved = removed
	if err != nil {
		r.warn("rendered frame cleanup failed", "frame_cleanup_failed",
			logging.String("sequence", plan.Path),
			logging.Error(err),
		)
	}
}
