package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"blast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose every path lives under a per-test temp
// directory. Rendering defaults to the no-op "true" command.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.BackupRoot = filepath.Join(base, "projects")
	cfgVal.Paths.BackupFallback = filepath.Join(base, "BlastBackup")
	cfgVal.Paths.FinalBackupPath = filepath.Join(base, "tmp", "blast_backup")
	cfgVal.Tracking.Path = filepath.Join(base, "tracking.db")
	cfgVal.Render.Command = "true"
	cfgVal.Render.TimeoutMinutes = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTrackingBackend selects the shot data backend.
func WithTrackingBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracking.Backend = backend
	}
}

// WithRenderCommand overrides the external render command.
func WithRenderCommand(command string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Command = command
		if len(args) > 0 {
			b.cfg.Render.Args = args
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the render and encode binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{config.Default().Render.Command, config.Default().Transcode.FFmpegBinary}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// WriteConfig serializes cfg as TOML next to its temp directory and returns
// the file path, for commands that load configuration from disk.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
