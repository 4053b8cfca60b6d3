package blast_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blast/internal/blast"
	"blast/internal/catalog"
	"blast/internal/config"
	"blast/internal/scene"
	"blast/internal/scene/script"
	"blast/internal/services"
	"blast/internal/shotdata"
	"blast/internal/testsupport"
	"blast/internal/tracking"
	"blast/internal/transcode"
)

const composition = `{
  "root": {"first_frame": 1, "last_frame": 100, "fps": 25},
  "nodes": [
    {"name": "Read1", "class": "Read", "params": {"file": "/plates/AB_010.####.exr", "first": 1001, "last": 1100, "colorspace": "linear"},
     "metadata": {"input/bitsperchannel": "8-bit fixed"}},
    {"name": "Reformat1", "class": "Reformat", "params": {}, "inputs": ["Read1"]},
    {"name": "STMap1", "class": "STMap", "params": {"file": ""}, "inputs": ["Reformat1"]},
    {"name": "LUTSwitch", "class": "Switch", "params": {"which": 0}, "inputs": ["STMap1"]},
    {"name": "SlateSwitch", "class": "Switch", "params": {"which": 0}, "inputs": ["LUTSwitch"],
     "keys": {"which": [{"frame": 1, "value": 1}]}},
    {"name": "Slate", "class": "Text", "params": {"notes": "", "clientshot": "", "version": "", "frames": ""}},
    {"name": "Burnin", "class": "Text", "params": {"notes": "", "clientShotName": "", "artist": ""}},
    {"name": "Timecode", "class": "AddTimeCode", "params": {"useFrame": false, "frame": 0}},
    {"name": "Write1", "class": "Write", "inputs": ["SlateSwitch"],
     "params": {"file": "", "file_type": "exr", "colorspace": "", "_jpeg_quality": 0, "meta_codec": "", "mov64_audiofile": "", "first": 0, "last": 0}}
  ]
}`

type renderCall struct {
	script string
	args   []string
	body   []byte
}

type fakeTranscoder struct {
	requests []transcode.Request
	err      error
}

func (f *fakeTranscoder) Transcode(_ context.Context, req transcode.Request) (transcode.Result, error) {
	f.requests = append(f.requests, req)
	return transcode.Result{Movie: transcode.MoviePath(req.Pattern)}, f.err
}

type fakeHistory struct{ entries []tracking.HistoryEntry }

func (f *fakeHistory) RecordBlast(_ context.Context, e tracking.HistoryEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type harness struct {
	cfg     *config.Config
	comp    string
	out     string
	engine  *script.Engine
	renders []renderCall
	data    *shotdata.Memory
	codec   *fakeTranscoder
	history *fakeHistory
	// onRender runs inside the render command, after the checkpoint exists.
	onRender func(call renderCall)
	// versions replaces the in-memory version lookups when set.
	versions shotdata.Provider
	logger   *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	h := &harness{
		cfg:     cfg,
		comp:    testsupport.WriteFile(t, filepath.Join(base, "comp", "AB_010_comp.json"), composition),
		out:     filepath.Join(base, "deliveries"),
		data:    shotdata.NewMemory(),
		codec:   &fakeTranscoder{},
		history: &fakeHistory{},
	}
	h.engine = script.New(cfg.Render, nil)
	h.engine.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		call := renderCall{script: args[len(args)-1], args: args}
		body, err := os.ReadFile(call.script)
		if err != nil {
			t.Errorf("render ran before the checkpoint was written: %v", err)
		}
		call.body = body
		h.renders = append(h.renders, call)
		if h.onRender != nil {
			h.onRender(call)
		}
		return nil, nil
	})
	return h
}

func (h *harness) run(t *testing.T, req blast.JobRequest, specs ...catalog.FormatSpec) ([]blast.Outcome, error) {
	t.Helper()
	cat, err := catalog.New(specs...)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	if req.Comp == "" {
		req.Comp = h.comp
	}
	if req.Output == "" {
		req.Output = h.out
	}
	src := h.data.Source()
	if h.versions != nil {
		src.Versions = h.versions
	}
	engine := blast.New(h.cfg, h.engine, h.logger,
		blast.WithShotData(src),
		blast.WithTranscoder(h.codec),
		blast.WithHistory(h.history),
		blast.WithClock(func() time.Time { return time.Date(2026, 4, 9, 14, 5, 0, 0, time.UTC) }),
		blast.WithRunIDs(func() string { return "run-1" }),
	)
	return engine.Run(context.Background(), req, cat)
}

func findNode(t *testing.T, doc *script.Document, name string) *script.Node {
	t.Helper()
	for _, n := range doc.Nodes {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("node %s not in document", name)
	return nil
}

func readDoc(t *testing.T, path string) *script.Document {
	t.Helper()
	doc, err := script.ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument(%s): %v", path, err)
	}
	return doc
}

func TestRunNativeRangeJpg(t *testing.T) {
	h := newHarness(t)
	spec := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg"}

	outcomes, err := h.run(t, blast.JobRequest{Filename: "shot010.####", Formats: []string{"PREVIEW"}}, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 1 || len(h.renders) != 1 {
		t.Fatalf("outcomes=%d renders=%d", len(outcomes), len(h.renders))
	}
	got := outcomes[0]
	if want := filepath.ToSlash(filepath.Join(h.out, "shot010.####.jpg")); got.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", got.OutputPath, want)
	}
	if got.Frames.In != 1001 || got.Frames.Out != 1100 || got.Frames.Step != 1 {
		t.Fatalf("frames = %+v", got.Frames)
	}
	if !strings.Contains(strings.Join(h.renders[0].args, " "), "-F 1001-1100x1 -X Write1") {
		t.Fatalf("render args = %v", h.renders[0].args)
	}

	if dir := filepath.Dir(got.Checkpoint); dir != h.cfg.Paths.BackupFallback {
		t.Fatalf("checkpoint dir = %q, want fallback %q", dir, h.cfg.Paths.BackupFallback)
	}
	if base := filepath.Base(got.Checkpoint); base != "__04_09_26_14_05_PREVIEW.json" {
		t.Fatalf("checkpoint name = %q", base)
	}
	checkpoint := readDoc(t, got.Checkpoint)
	write := findNode(t, checkpoint, "Write1")
	if write.Params["file_type"] != "jpg" || write.Params["_jpeg_quality"] != 1.0 || write.Params["file"] != got.OutputPath {
		t.Fatalf("output node params = %v", write.Params)
	}
	if read := findNode(t, checkpoint, "Read1"); read.Params["colorspace"] != "linear" {
		t.Fatalf("colorspace should only change with overrideJpegColorspace, got %v", read.Params["colorspace"])
	}

	final := h.cfg.Paths.FinalBackupPath + ".json"
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("final backup missing: %v", err)
	}
	if len(h.history.entries) != 1 || h.history.entries[0].Status != tracking.StatusRendered || h.history.entries[0].RunID != "run-1" {
		t.Fatalf("history = %+v", h.history.entries)
	}
	if len(h.codec.requests) != 0 {
		t.Fatal("transcode was not requested")
	}
}

func TestRunUnknownFormatAbortsBeforeMutation(t *testing.T) {
	h := newHarness(t)
	before, _ := os.ReadFile(h.comp)
	spec := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg"}

	_, err := h.run(t, blast.JobRequest{Filename: "a.####", Formats: []string{"PREVIEW", "MISSING"}}, spec)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) != 1 {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	if !strings.Contains(err.Error(), "MISSING") {
		t.Fatalf("error should name the format: %v", err)
	}
	if len(h.renders) != 0 {
		t.Fatal("nothing may render when a format is unknown")
	}
	after, _ := os.ReadFile(h.comp)
	if string(before) != string(after) {
		t.Fatal("composition was modified")
	}
	if _, err := os.Stat(h.cfg.Paths.FinalBackupPath + ".json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("no final backup expected")
	}
}

func TestRunMissingOutputNodeIsFatal(t *testing.T) {
	h := newHarness(t)
	spec := catalog.FormatSpec{Name: "BROKEN", InputNode: "Read1", OutputNode: "Write9", Ext: ".jpg"}

	_, err := h.run(t, blast.JobRequest{Filename: "a.####", Formats: []string{"BROKEN"}}, spec)
	if !errors.Is(err, services.ErrConfiguration) || !errors.Is(err, scene.ErrNodeNotFound) {
		t.Fatalf("expected missing node configuration error, got %v", err)
	}
	if len(h.history.entries) != 1 || h.history.entries[0].Status != tracking.StatusFailed {
		t.Fatalf("failure should be recorded: %+v", h.history.entries)
	}
}

func TestRunSlatedFormat(t *testing.T) {
	h := newHarness(t)
	spec := catalog.FormatSpec{
		Name:                   "CLIENT",
		InputNode:              "Read1",
		OutputNode:             "Write1",
		Ext:                    ".exr",
		SlateNode:              "Slate",
		SlateSwitch:            "SlateSwitch",
		TimecodeNode:           "Timecode",
		RelativePath:           "exr",
		FileSuffix:             "_client",
		OverrideJpegColorspace: "sRGB",
	}
	req := blast.JobRequest{
		Filename:       "AB_010.####",
		FrameIn:        1010,
		FrameOut:       1050,
		Formats:        []string{"CLIENT"},
		Notes:          "first pass",
		ClientShotName: "ABC_0010",
		Version:        "v003",
		Artist:         "Jane Doe",
		Flags:          blast.Flags{CreateSlate: true},
	}
	outcomes, err := h.run(t, req, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := outcomes[0]
	if got.Frames.In != 1009 || got.Frames.Out != 1050 || got.SlateLabel != "1010-1050" {
		t.Fatalf("outcome = %+v", got)
	}
	if want := filepath.ToSlash(filepath.Join(h.out, "exr", "AB_010_client.####.exr")); got.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", got.OutputPath, want)
	}
	if _, err := os.Stat(filepath.Join(h.out, "exr")); err != nil {
		t.Fatalf("output directory not created: %v", err)
	}

	doc := readDoc(t, got.Checkpoint)
	if doc.Root["first_frame"] != 1009.0 || doc.Root["last_frame"] != 1050.0 {
		t.Fatalf("root range = %v-%v", doc.Root["first_frame"], doc.Root["last_frame"])
	}
	keys := findNode(t, doc, "SlateSwitch").Keys["which"]
	if len(keys) != 2 || keys[0].Frame != 1009 || keys[0].Value != 0.0 || keys[1].Frame != 1010 || keys[1].Value != 1.0 {
		t.Fatalf("slate keys = %+v", keys)
	}
	slate := findNode(t, doc, "Slate").Params
	if slate["frames"] != "1010-1050" || slate["clientshot"] != "ABC_0010" || slate["version"] != "v003" {
		t.Fatalf("slate = %v", slate)
	}
	burnin := findNode(t, doc, "Burnin").Params
	if burnin["clientShotName"] != "ABC_0010_v003" || burnin["artist"] != "Jane Doe" || burnin["notes"] != "first pass" {
		t.Fatalf("burnin = %v", burnin)
	}
	timecode := findNode(t, doc, "Timecode").Params
	if timecode["useFrame"] != true || timecode["frame"] != 1009.0 {
		t.Fatalf("timecode = %v", timecode)
	}
	read := findNode(t, doc, "Read1").Params
	if read["first"] != 1010.0 || read["last"] != 1050.0 || read["colorspace"] != "sRGB" {
		t.Fatalf("read = %v", read)
	}
}

func TestRunShotPipelineAndTranscode(t *testing.T) {
	h := newHarness(t)
	h.data.AddArtist("Jane Doe", "jdoe")
	h.data.SetProjectFPS("show", 23.976)
	audio := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(h.cfg), "audio", "AB_010.wav"), "RIFF")
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeAudio, Number: 1, PathToMovie: audio})
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeSTMap, Variation: shotdata.VariationDistorted, Number: 1, PathToMovie: "/maps/distort.exr"})
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeComposition, Variation: shotdata.VariationPostmove, Status: shotdata.StatusApproved, Number: 1, PathToMovie: "/comps/postmove.json"})

	h.onRender = func(call renderCall) {
		testsupport.WriteFrames(t, filepath.Join(h.out, "review", "AB_010.####.png"), 1001, 1003)
	}
	spec := catalog.FormatSpec{
		Name:           "REVIEW",
		InputNode:      "Read1",
		OutputNode:     "Write1",
		Ext:            ".png",
		RelativePath:   "review",
		DistortionNode: "STMap1",
		LUTSwitch:      "LUTSwitch",
		RunTranscode:   true,
	}
	req := blast.JobRequest{
		File:     "/plates/AB_010.####.exr",
		FrameIn:  1001,
		FrameOut: 1003,
		Formats:  []string{"REVIEW"},
		Project:  "show",
		Shot:     "AB_010",
		Artist:   "Jane Doe",
		Flags:    blast.Flags{NoLUT: true, ApplyDistortion: true, RunTranscode: true},
	}
	outcomes, err := h.run(t, req, spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := outcomes[0]

	wantCheckpoint := filepath.Join(h.cfg.Paths.BackupRoot, "show", "shots", "AB", "010", "blast_backup", "AB_010_jdoe_04_09_26_14_05_REVIEW.json")
	if got.Checkpoint != wantCheckpoint {
		t.Fatalf("checkpoint = %q, want %q", got.Checkpoint, wantCheckpoint)
	}
	doc := readDoc(t, got.Checkpoint)
	if doc.Root["fps"] != 23.976 {
		t.Fatalf("project fps not applied: %v", doc.Root["fps"])
	}
	if findNode(t, doc, "LUTSwitch").Params["which"] != 1.0 {
		t.Fatal("noLUT should bypass the LUT switch")
	}
	if findNode(t, doc, "STMap1").Params["file"] != "" {
		t.Fatal("distortion must be skipped when a postmove exists upstream")
	}
	if got.Audio != audio {
		t.Fatalf("audio = %q, want %q", got.Audio, audio)
	}
	if findNode(t, doc, "Write1").Params["mov64_audiofile"] != "" {
		t.Fatal("audio is attached to the output node only for movies")
	}

	if len(h.codec.requests) != 1 {
		t.Fatalf("transcode requests = %d", len(h.codec.requests))
	}
	tr := h.codec.requests[0]
	if tr.FrameStart != 1001 || !strings.HasSuffix(tr.Pattern, "/review/AB_010.%04d.png") || tr.Audio != audio || tr.Shot != "AB_010" {
		t.Fatalf("transcode request = %+v", tr)
	}
	if tr.CommandDir != filepath.Dir(wantCheckpoint) {
		t.Fatalf("command dir = %q", tr.CommandDir)
	}
	if got.FramesRemoved != 3 {
		t.Fatalf("frames removed = %d", got.FramesRemoved)
	}
	if h.history.entries[0].Status != tracking.StatusTranscoded {
		t.Fatalf("history status = %q", h.history.entries[0].Status)
	}
}

func TestRunTranscodeFailureKeepsFrames(t *testing.T) {
	h := newHarness(t)
	h.codec.err = services.NewExecutionError([]string{"ffmpeg"}, []byte("boom"), errors.New("exit status 1"))
	sequence := filepath.Join(h.out, "AB_010.####.png")
	h.onRender = func(renderCall) { testsupport.WriteFrames(t, sequence, 1, 2) }
	spec := catalog.FormatSpec{Name: "REVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".png", RunTranscode: true}

	outcomes, err := h.run(t, blast.JobRequest{
		Filename: "AB_010.####",
		FrameIn:  1,
		FrameOut: 2,
		Formats:  []string{"REVIEW"},
		Flags:    blast.Flags{RunTranscode: true},
	}, spec)
	if err != nil {
		t.Fatalf("transcode failures must not fail the run: %v", err)
	}
	if outcomes[0].TranscodeError == "" || outcomes[0].Warnings == 0 {
		t.Fatalf("outcome = %+v", outcomes[0])
	}
	if _, err := os.Stat(strings.Replace(sequence, "####", "0001", 1)); err != nil {
		t.Fatal("frames must be kept when the encode fails")
	}
}

func TestRunRenderFailureKeepsExitCode(t *testing.T) {
	h := newHarness(t)
	h.cfg.Render.Command = "sh"
	h.cfg.Render.Args = []string{"-c", "exit 3", "{script}"}
	h.engine = script.New(h.cfg.Render, nil)
	spec := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg"}
	second := catalog.FormatSpec{Name: "CLIENT", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg"}

	outcomes, err := h.run(t, blast.JobRequest{Filename: "a.####", FrameIn: 1, FrameOut: 2, Formats: []string{"PREVIEW", "CLIENT"}}, spec, second)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if services.ExitCode(err) != 3 {
		t.Fatalf("exit code = %d, want 3", services.ExitCode(err))
	}
	if len(outcomes) != 0 || len(h.history.entries) != 1 {
		t.Fatalf("the run must stop at the first failed render: outcomes=%d history=%d", len(outcomes), len(h.history.entries))
	}
}

const postmoveDoc = `{"nodes": [{"name": "Postmove", "class": "Transform", "params": {"translate": 0}}]}`

func countClass(doc *script.Document, class string) int {
	n := 0
	for _, node := range doc.Nodes {
		if node.Class == class {
			n++
		}
	}
	return n
}

func shotRequest(formats ...string) blast.JobRequest {
	return blast.JobRequest{
		Filename: "AB_010.####",
		FrameIn:  1001,
		FrameOut: 1002,
		Formats:  formats,
		Project:  "show",
		Shot:     "AB_010",
	}
}

func TestRunPostmoveSplicedOnceAcrossFormats(t *testing.T) {
	h := newHarness(t)
	base := testsupport.BaseDir(h.cfg)
	pm := testsupport.WriteFile(t, filepath.Join(base, "published", "postmove.json"), postmoveDoc)
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeComposition, Variation: shotdata.VariationPostmove, Status: shotdata.StatusApproved, Number: 1, PathToMovie: pm})
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeSTMap, Variation: shotdata.VariationDistorted, Number: 1, PathToMovie: "/maps/distort.exr"})

	first := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg", DistortionNode: "STMap1"}
	second := catalog.FormatSpec{Name: "CLIENT", InputNode: "Read1", OutputNode: "Write1", Ext: ".exr", DistortionNode: "STMap1", RelativePath: "exr"}
	req := shotRequest("PREVIEW", "CLIENT")
	req.Flags = blast.Flags{ApplyPostmove: true, ApplyDistortion: true, NoAudio: true}

	outcomes, err := h.run(t, req, first, second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, out := range outcomes {
		doc := readDoc(t, out.Checkpoint)
		if n := countClass(doc, "Transform"); n != 1 {
			t.Fatalf("%s: postmove nodes = %d, want 1", out.Format, n)
		}
		if got := findNode(t, doc, "STMap1").Inputs; len(got) != 1 || got[0] != "Postmove" {
			t.Fatalf("%s: STMap1 inputs = %v", out.Format, got)
		}
		if got := findNode(t, doc, "STMap1").Params["file"]; got != "/maps/distort.exr" {
			t.Fatalf("%s: distortion must stay on when the postmove is applied here, file = %v", out.Format, got)
		}
	}
}

// postmoveToggle hides the postmove record once hidden is set.
type postmoveToggle struct {
	shotdata.Provider
	hidden bool
}

func (p *postmoveToggle) FindLatestVersion(ctx context.Context, q shotdata.Query) (shotdata.Record, bool, error) {
	if p.hidden && q.Variation == shotdata.VariationPostmove {
		return shotdata.Record{}, false, nil
	}
	return p.Provider.FindLatestVersion(ctx, q)
}

func TestRunDistortionOverrideStaysWithItsFormat(t *testing.T) {
	h := newHarness(t)
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeComposition, Variation: shotdata.VariationPostmove, Status: shotdata.StatusApproved, Number: 1, PathToMovie: "/comps/postmove.json"})
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeSTMap, Variation: shotdata.VariationDistorted, Number: 1, PathToMovie: "/maps/distort.exr"})
	toggle := &postmoveToggle{Provider: h.data}
	h.versions = toggle
	h.onRender = func(renderCall) { toggle.hidden = true }

	first := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg", DistortionNode: "STMap1"}
	second := catalog.FormatSpec{Name: "CLIENT", InputNode: "Read1", OutputNode: "Write1", Ext: ".exr", DistortionNode: "STMap1", RelativePath: "exr"}
	req := shotRequest("PREVIEW", "CLIENT")
	req.Flags = blast.Flags{ApplyDistortion: true, NoAudio: true}

	outcomes, err := h.run(t, req, first, second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := findNode(t, readDoc(t, outcomes[0].Checkpoint), "STMap1").Params["file"]; got != "" {
		t.Fatalf("PREVIEW: distortion should be disabled by the upstream postmove, file = %v", got)
	}
	if got := findNode(t, readDoc(t, outcomes[1].Checkpoint), "STMap1").Params["file"]; got != "/maps/distort.exr" {
		t.Fatalf("CLIENT: distortion override leaked from PREVIEW, file = %v", got)
	}
}

const gradedComposition = `{
  "root": {"first_frame": 1, "last_frame": 100},
  "nodes": [
    {"name": "Read1", "class": "Read", "params": {"file": "/plates/AB_010.####.exr", "first": 1001, "last": 1100}},
    {"name": "CDL1", "class": "OCIOCDLTransform", "params": {"file": "", "cccid": "", "reload": null}, "inputs": ["Read1"]},
    {"name": "LUT1", "class": "Vectorfield", "params": {"vfield_file": ""}, "inputs": ["CDL1"]},
    {"name": "Write1", "class": "Write", "inputs": ["LUT1"],
     "params": {"file": "", "file_type": "", "colorspace": "", "_jpeg_quality": 0, "first": 0, "last": 0}}
  ]
}`

const gradeCDL = `<?xml version="1.0" encoding="UTF-8"?>
<ColorCorrectionCollection xmlns="urn:ASC:CDL:v1.01">
  <ColorCorrection id="AB_010_grade"><SOPNode><Slope>1 1 1</Slope></SOPNode></ColorCorrection>
</ColorCorrectionCollection>`

func TestRunNoAudioAlsoSkipsCDLAnd3DL(t *testing.T) {
	h := newHarness(t)
	base := testsupport.BaseDir(h.cfg)
	comp := testsupport.WriteFile(t, filepath.Join(base, "comp", "AB_010_graded.json"), gradedComposition)
	cdl := testsupport.WriteFile(t, filepath.Join(base, "published", "grade.ccc"), gradeCDL)
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.TypeCDL, Status: shotdata.StatusApproved, Number: 1, PathToMovie: cdl})
	h.data.AddVersion(shotdata.Record{Project: "show", Entity: "AB_010", VersionType: shotdata.Type3DL, Variation: shotdata.Variation3DL, Number: 1, PathToMovie: "/luts/show.3dl"})

	tests := []struct {
		name     string
		format   string
		noAudio  bool
		wantCDL  string
		wantLUT  string
		wantCCID string
	}{
		{name: "audio allowed loads grade", format: "GRADED", wantCDL: cdl, wantLUT: "/luts/show.3dl", wantCCID: "AB_010_grade"},
		{name: "noAudio skips grade", format: "SILENT", noAudio: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := catalog.FormatSpec{Name: tt.format, InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg", CDLNode: "CDL1", LUTNode: "LUT1"}
			req := shotRequest(tt.format)
			req.Comp = comp
			req.Flags = blast.Flags{NoAudio: tt.noAudio}
			outcomes, err := h.run(t, req, spec)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			doc := readDoc(t, outcomes[0].Checkpoint)
			cdlNode := findNode(t, doc, "CDL1").Params
			if cdlNode["file"] != tt.wantCDL || cdlNode["cccid"] != tt.wantCCID {
				t.Fatalf("CDL1 = %v", cdlNode)
			}
			if got := findNode(t, doc, "LUT1").Params["vfield_file"]; got != tt.wantLUT {
				t.Fatalf("LUT1 vfield_file = %v, want %q", got, tt.wantLUT)
			}
		})
	}
}

func TestRunMissingBurninIsLogged(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	h.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	comp := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(h.cfg), "comp", "AB_010_graded.json"), gradedComposition)
	spec := catalog.FormatSpec{Name: "PREVIEW", InputNode: "Read1", OutputNode: "Write1", Ext: ".jpg"}

	if _, err := h.run(t, blast.JobRequest{Comp: comp, Filename: "a.####", Formats: []string{"PREVIEW"}}, spec); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), "no burnin node") {
		t.Fatalf("missing burnin node should be logged at info level:\n%s", buf.String())
	}
}
