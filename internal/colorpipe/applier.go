package colorpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"blast/internal/catalog"
	"blast/internal/logging"
	"blast/internal/scene"
	"blast/internal/services"
	"blast/internal/shotdata"
)

// Applier resolves shot data and applies the color pipeline to a scene.
// Every mutator is a no-op when its node is not configured or the provider
// has no matching version.
type Applier struct {
	provider shotdata.Provider
	logger   *slog.Logger
}

// New constructs an applier. A nil provider makes every lookup a miss.
func New(provider shotdata.Provider, logger *slog.Logger) *Applier {
	return &Applier{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "colorpipe"),
	}
}

// Available reports whether a shot data provider is configured.
func (a *Applier) Available() bool {
	return a != nil && a.provider != nil
}

// lookup runs a provider query. Absent records and provider failures both
// come back as ErrLookupMiss so a broken tracking connection never aborts a
// blast; provider failures are additionally logged as warnings.
func (a *Applier) lookup(ctx context.Context, what string, q shotdata.Query) (shotdata.Record, error) {
	miss := func(cause error) error {
		return services.Wrap(services.ErrLookupMiss, "colorpipe", what, q.Project+"/"+q.Entity, cause)
	}
	if !a.Available() {
		return shotdata.Record{}, miss(nil)
	}
	rec, ok, err := a.provider.FindLatestVersion(ctx, q)
	if err != nil {
		logging.WarnWithContext(a.logger, "shot data lookup failed", "shotdata_lookup_failed",
			logging.String("lookup", what),
			logging.String("project", q.Project),
			logging.String("entity", q.Entity),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tracking database connectivity"),
			logging.String(logging.FieldImpact, what+" skipped for this format"),
		)
		return shotdata.Record{}, miss(err)
	}
	if !ok {
		a.logger.Info("no published version",
			logging.String("lookup", what),
			logging.String("project", q.Project),
			logging.String("entity", q.Entity),
			logging.String("version_type", q.VersionType),
			logging.String("variation", q.Variation),
		)
		return shotdata.Record{}, miss(nil)
	}
	return rec, nil
}

// ApplyDistortion points the distortion node at the latest ST map. distort
// selects the Distorted variation, otherwise Undistorted.
func (a *Applier) ApplyDistortion(ctx context.Context, sc scene.Adapter, spec catalog.FormatSpec, project, shot string, distort bool) error {
	if spec.DistortionNode == "" {
		return nil
	}
	variation := shotdata.VariationUndistorted
	if distort {
		variation = shotdata.VariationDistorted
	}
	rec, err := a.lookup(ctx, "st map", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.TypeSTMap,
		Variation:   variation,
	})
	if err != nil {
		return nil
	}
	if err := sc.SetParam(spec.DistortionNode, "file", shotdata.NormalizePath(rec.PathToMovie)); err != nil {
		return fmt.Errorf("distortion node: %w", err)
	}
	if spec.DistortionSwitch != "" {
		if err := sc.SetParam(spec.DistortionSwitch, "which", 1); err != nil {
			return fmt.Errorf("distortion switch: %w", err)
		}
	}
	return nil
}

// FindPostmove returns the approved postmove for a shot, or an error marked
// ErrLookupMiss when there is none.
func (a *Applier) FindPostmove(ctx context.Context, project, shot string) (shotdata.Record, error) {
	return a.lookup(ctx, "postmove", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.TypeComposition,
		Variation:   shotdata.VariationPostmove,
		Status:      shotdata.StatusApproved,
	})
}

// ApplyPostmove imports the approved postmove subgraph and splices it
// directly after the reformat stage that follows inputNode. It returns the
// head node of the spliced subgraph. spliced names the head of an earlier
// splice in the same session; when that node is still present the graph is
// left as is, so later formats never stack a second postmove.
func (a *Applier) ApplyPostmove(ctx context.Context, sc scene.Adapter, inputNode, project, shot, spliced string) (string, error) {
	if spliced != "" && sc.HasNode(spliced) {
		a.logger.Debug("postmove already spliced", logging.String("postmove", spliced))
		return spliced, nil
	}
	rec, err := a.FindPostmove(ctx, project, shot)
	if err != nil {
		return "", nil
	}
	reformat, err := reformatStage(sc, inputNode)
	if err != nil {
		return "", err
	}
	consumers := sc.Dependents(reformat)

	head, err := sc.Import(ctx, shotdata.NormalizePath(rec.PathToMovie))
	if err != nil {
		return "", fmt.Errorf("import postmove: %w", err)
	}
	if err := sc.SetInput(head, 0, reformat); err != nil {
		return head, fmt.Errorf("connect postmove: %w", err)
	}
	for _, consumer := range consumers {
		if consumer == head {
			continue
		}
		for slot, input := range sc.Inputs(consumer) {
			if input != reformat {
				continue
			}
			if err := sc.SetInput(consumer, slot, head); err != nil {
				return head, fmt.Errorf("rewire %s: %w", consumer, err)
			}
		}
	}
	a.logger.Info("postmove applied",
		logging.String("postmove", head),
		logging.String("after", reformat),
		logging.Int("consumers", len(consumers)),
	)
	return head, nil
}

// reformatStage picks the first consumer of inputNode, preferring a node of
// class Reformat.
func reformatStage(sc scene.Adapter, inputNode string) (string, error) {
	deps := sc.Dependents(inputNode)
	if len(deps) == 0 {
		return "", fmt.Errorf("postmove: %s has no downstream node to splice after", inputNode)
	}
	for _, dep := range deps {
		if class, err := sc.Class(dep); err == nil && class == "Reformat" {
			return dep, nil
		}
	}
	return deps[0], nil
}

// ApplyCDL loads the approved CDL and selects its color correction.
func (a *Applier) ApplyCDL(ctx context.Context, sc scene.Adapter, spec catalog.FormatSpec, project, shot string) error {
	if spec.CDLNode == "" || !sc.HasNode(spec.CDLNode) {
		return nil
	}
	rec, err := a.lookup(ctx, "cdl", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.TypeCDL,
		Status:      shotdata.StatusApproved,
	})
	if err != nil {
		return nil
	}
	path := shotdata.NormalizePath(rec.PathToMovie)
	cccid, err := ParseCCCID(path)
	if err != nil {
		return fmt.Errorf("cdl: %w", err)
	}
	a.logger.Debug("cdl resolved", logging.String("path", path), logging.String("cccid", cccid))
	if err := sc.SetParam(spec.CDLNode, "file", path); err != nil {
		return fmt.Errorf("cdl node: %w", err)
	}
	if err := sc.SetParam(spec.CDLNode, "cccid", cccid); err != nil {
		return fmt.Errorf("cdl node: %w", err)
	}
	if err := sc.Execute(spec.CDLNode, "reload"); err != nil {
		return fmt.Errorf("cdl reload: %w", err)
	}
	return nil
}

// Apply3DL points the LUT node at the latest 3D LUT.
func (a *Applier) Apply3DL(ctx context.Context, sc scene.Adapter, spec catalog.FormatSpec, project, shot string) error {
	if spec.LUTNode == "" {
		return nil
	}
	rec, err := a.lookup(ctx, "3dl", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.Type3DL,
		Variation:   shotdata.Variation3DL,
	})
	if err != nil || !sc.HasNode(spec.LUTNode) {
		return nil
	}
	if err := sc.SetParam(spec.LUTNode, "vfield_file", shotdata.NormalizePath(rec.PathToMovie)); err != nil {
		return fmt.Errorf("lut node: %w", err)
	}
	return nil
}

// ImportPlate points node at the frames of the latest flattened plate.
func (a *Applier) ImportPlate(ctx context.Context, sc scene.Adapter, node, project, shot string) error {
	if node == "" {
		return nil
	}
	rec, err := a.lookup(ctx, "plate", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.TypePlate,
	})
	if err != nil || !sc.HasNode(node) {
		return nil
	}
	if err := sc.SetParam(node, "file", shotdata.NormalizePath(rec.PathToFrames)); err != nil {
		return fmt.Errorf("plate node: %w", err)
	}
	return nil
}

// AttachAudio resolves the latest audio for the shot and, when the output
// writes a movie, attaches it to the output node. The resolved path is
// returned either way so a transcode can mux it.
func (a *Applier) AttachAudio(ctx context.Context, sc scene.Adapter, outputNode, project, shot string) (string, error) {
	rec, err := a.lookup(ctx, "audio", shotdata.Query{
		Project:     project,
		Entity:      shot,
		VersionType: shotdata.TypeAudio,
	})
	if err != nil {
		return "", nil
	}
	path := shotdata.NormalizePath(rec.PathToMovie)
	fileType, err := sc.Param(outputNode, "file_type")
	if err != nil {
		if errors.Is(err, scene.ErrParamNotFound) {
			return path, nil
		}
		return path, fmt.Errorf("audio: %w", err)
	}
	if s, _ := fileType.(string); s != "mov" {
		return path, nil
	}
	for _, param := range []string{"mov64_audiofile", "mov32_audiofile"} {
		if !sc.HasParam(outputNode, param) {
			continue
		}
		if err := sc.SetParam(outputNode, param, path); err != nil {
			return path, fmt.Errorf("audio: %w", err)
		}
	}
	return path, nil
}

// BypassLUT flips the format's LUT switch to its bypass input.
func BypassLUT(sc scene.Adapter, spec catalog.FormatSpec) error {
	return bypass(sc, spec.LUTSwitch)
}

// BypassCDL flips the format's CDL switch to its bypass input.
func BypassCDL(sc scene.Adapter, spec catalog.FormatSpec) error {
	return bypass(sc, spec.CDLSwitch)
}

func bypass(sc scene.Adapter, node string) error {
	if node == "" || !sc.HasNode(node) {
		return nil
	}
	return sc.SetParam(node, "which", 1)
}
