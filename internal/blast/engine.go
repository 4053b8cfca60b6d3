package blast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"blast/internal/catalog"
	"blast/internal/colorpipe"
	"blast/internal/config"
	"blast/internal/logging"
	"blast/internal/scene"
	"blast/internal/services"
	"blast/internal/shotdata"
	"blast/internal/tracking"
	"blast/internal/transcode"
)

// Engine runs formats against one composition, one after another.
type Engine struct {
	cfg        *config.Config
	adapter    scene.Adapter
	source     shotdata.Source
	colors     *colorpipe.Applier
	transcoder Transcoder
	history    HistoryRecorder
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithShotData sets the tracking lookups. Without it every lookup misses.
func WithShotData(src shotdata.Source) Option {
	return func(e *Engine) { e.source = src }
}

// WithTranscoder replaces the ffmpeg dispatcher.
func WithTranscoder(t Transcoder) Option {
	return func(e *Engine) {
		if t != nil {
			e.transcoder = t
		}
	}
}

// WithHistory records every format outcome.
func WithHistory(h HistoryRecorder) Option {
	return func(e *Engine) { e.history = h }
}

// WithClock overrides the clock used for checkpoint names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs overrides the run identifier generator.
func WithRunIDs(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// New constructs an engine that drives adapter.
func New(cfg *config.Config, adapter scene.Adapter, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:      cfg,
		adapter:  adapter,
		logger:   logging.NewComponentLogger(logger, "blast"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.transcoder == nil {
		e.transcoder = transcode.New(cfg.Transcode, logger)
	}
	e.colors = colorpipe.New(e.source.Versions, logger)
	return e
}

// Run produces every requested format in order. Unknown formats abort the
// run before the composition is touched. The first fatal format error stops
// the run; outcomes of the formats already produced are still returned.
func (e *Engine) Run(ctx context.Context, req JobRequest, cat *catalog.Catalog) ([]Outcome, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := cat.Require(req.Formats); err != nil {
		return nil, err
	}

	runID := e.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("blast started",
		logging.String("comp", req.Comp),
		logging.Any("formats", req.Formats),
		logging.String("project", req.Project),
		logging.String("shot", req.Shot),
		logging.String("asset", req.Asset),
	)

	session, err := scene.OpenSession(ctx, e.adapter, req.Comp, logger)
	if err != nil {
		return nil, err
	}
	e.applyProjectFPS(ctx, logger, session.Adapter(), req.Project)
	user := e.resolveUser(ctx, logger, req.Artist)

	run := &runState{}
	outcomes := make([]Outcome, 0, len(req.Formats))
	for _, name := range req.Formats {
		if err := ctx.Err(); err != nil {
			_ = session.Close()
			return outcomes, err
		}
		spec, err := cat.Lookup(name)
		if err != nil {
			_ = session.Close()
			return outcomes, err
		}
		fctx := services.WithFormat(ctx, name)
		outcome, err := e.runFormat(fctx, session, run, req, spec, user)
		e.record(fctx, req, runID, outcome, err)
		if err != nil {
			logging.ErrorWithContext(logging.WithContext(fctx, e.logger), "format failed", "format_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining formats were not produced"),
			)
			_ = session.Close()
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}

	final := FinalBackupPath(e.cfg.Paths, session.Adapter().SessionExt())
	if err := session.Finish(ctx, final); err != nil {
		return outcomes, err
	}
	logger.Info("blast finished",
		logging.Int("formats", len(outcomes)),
		logging.String("final_backup", final),
	)
	return outcomes, nil
}

func (e *Engine) applyProjectFPS(ctx context.Context, logger *slog.Logger, sc scene.Adapter, project string) {
	if project == "" || e.source.Projects == nil {
		return
	}
	fps, ok, err := e.source.Projects.ProjectFPS(ctx, project)
	if err != nil {
		logging.WarnWithContext(logger, "project frame rate lookup failed", "project_fps_failed",
			logging.String("project", project),
			logging.Error(err),
			logging.String(logging.FieldImpact, "composition keeps its own frame rate"),
		)
		return
	}
	if !ok {
		return
	}
	if err := sc.SetRoot("fps", fps); err != nil {
		logging.WarnWithContext(logger, "set project frame rate failed", "project_fps_failed",
			logging.Float64("fps", fps),
			logging.Error(err),
		)
	}
}

func (e *Engine) resolveUser(ctx context.Context, logger *slog.Logger, artist string) string {
	if artist == "" || e.source.Artists == nil {
		return ""
	}
	user, ok, err := e.source.Artists.LookupUsername(ctx, artist)
	if err != nil {
		logging.WarnWithContext(logger, "artist lookup failed", "artist_lookup_failed",
			logging.String("artist", artist),
			logging.Error(err),
			logging.String(logging.FieldImpact, "checkpoint names carry no user tag"),
		)
		return ""
	}
	if !ok {
		logger.Info("artist not in directory", logging.String("artist", artist))
		return ""
	}
	return user
}

func (e *Engine) record(ctx context.Context, req JobRequest, runID string, out Outcome, runErr error) {
	if e.history == nil {
		return
	}
	entry := tracking.HistoryEntry{
		RunID:          runID,
		Comp:           req.Comp,
		Project:        req.Project,
		Shot:           req.Shot,
		Asset:          req.Asset,
		Artist:         req.Artist,
		Format:         out.Format,
		OutputPath:     out.OutputPath,
		CheckpointPath: out.Checkpoint,
		FrameIn:        out.Frames.In,
		FrameOut:       out.Frames.Out,
		Status:         tracking.StatusRendered,
		ErrorMessage:   out.TranscodeError,
		CreatedAt:      e.now(),
	}
	switch {
	case runErr != nil:
		entry.Status = tracking.StatusFailed
		entry.ErrorMessage = runErr.Error()
	case out.Movie != "" && out.TranscodeError == "":
		entry.Status = tracking.StatusTranscoded
		entry.OutputPath = out.Movie
	}
	if err := e.history.RecordBlast(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, fmt.Sprintf("format %s missing from blast history", out.Format)),
		)
	}
}
