package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"blast/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "blast", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Tracking.Backend != config.TrackingSQLite {
		t.Fatalf("expected sqlite tracking by default, got %q", cfg.Tracking.Backend)
	}
	if cfg.Tracking.Path != filepath.Join(tempHome, ".local", "share", "blast", "tracking.db") {
		t.Fatalf("unexpected tracking path: %q", cfg.Tracking.Path)
	}
	if cfg.Transcode.FPS != 23.976 {
		t.Fatalf("unexpected transcode fps: %v", cfg.Transcode.FPS)
	}
	if cfg.Transcode.IntermediateExt != ".png" {
		t.Fatalf("unexpected intermediate ext: %q", cfg.Transcode.IntermediateExt)
	}
	if cfg.Transcode.MaxRate != cfg.Transcode.Bitrate {
		t.Fatalf("expected max rate to follow bitrate, got %q", cfg.Transcode.MaxRate)
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.BackupFallback, filepath.Dir(cfg.Tracking.Path)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "blast.toml")

	type payload struct {
		Transcode struct {
			IntermediateExt string  `toml:"intermediate_ext"`
			FPS             float64 `toml:"fps"`
		} `toml:"transcode"`
		Render struct {
			Command string `toml:"command"`
		} `toml:"render"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Transcode.IntermediateExt = "TIF"
	custom.Transcode.FPS = 24
	custom.Render.Command = "/opt/nuke/Nuke15"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Transcode.IntermediateExt != ".tif" {
		t.Fatalf("expected normalized extension .tif, got %q", cfg.Transcode.IntermediateExt)
	}
	if cfg.Transcode.FPS != 24 {
		t.Fatalf("expected fps override, got %v", cfg.Transcode.FPS)
	}
	if cfg.Render.Command != "/opt/nuke/Nuke15" {
		t.Fatalf("unexpected render command: %q", cfg.Render.Command)
	}
	if len(cfg.Render.Args) == 0 {
		t.Fatal("expected default render args")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("BLAST_TRACKING_DSN", "")
	os.Unsetenv("BLAST_TRACKING_DSN")
	configPath := filepath.Join(t.TempDir(), "blast.toml")
	if err := os.WriteFile(configPath, []byte("[tracking]\nbackend = \"postgres\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "tracking.dsn") {
		t.Fatalf("expected tracking.dsn error, got %v", err)
	}

	t.Setenv("BLAST_TRACKING_DSN", "postgres://blast@localhost/studio")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load with env DSN: %v", err)
	}
	if cfg.Tracking.DSN != "postgres://blast@localhost/studio" {
		t.Fatalf("expected DSN from env, got %q", cfg.Tracking.DSN)
	}
}

func TestValidateRejectsRenderArgsWithoutScript(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Args = []string{"-x", "{node}"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when render args omit {script}")
	}
}

func TestValidateRejectsUnknownTrackingBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Tracking.Backend = "shotgun"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported tracking backend")
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}
