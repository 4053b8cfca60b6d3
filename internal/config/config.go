package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir          string `toml:"log_dir"`
	BackupRoot      string `toml:"backup_root"`
	BackupFallback  string `toml:"backup_fallback_dir"`
	FinalBackupPath string `toml:"final_backup_path"`
}

// Render contains configuration for the external render dispatcher used by
// the script composition engine.
type Render struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutMinutes int      `toml:"timeout_minutes"`
}

// Transcode contains configuration for the secondary movie encode.
type Transcode struct {
	FFmpegBinary    string  `toml:"ffmpeg_binary"`
	IntermediateExt string  `toml:"intermediate_ext"`
	FPS             float64 `toml:"fps"`
	VideoCodec      string  `toml:"video_codec"`
	PixelFormat     string  `toml:"pixel_format"`
	Preset          string  `toml:"preset"`
	Bitrate         string  `toml:"bitrate"`
	MaxRate         string  `toml:"max_rate"`
	BufSize         string  `toml:"buf_size"`
}

// Tracking contains configuration for the production tracking lookups.
type Tracking struct {
	// Backend selects the shot data provider: "sqlite", "postgres" or "none".
	Backend string `toml:"backend"`
	// Path is the SQLite database file used by the sqlite backend.
	Path string `toml:"path"`
	// DSN is the Postgres connection string used by the postgres backend.
	DSN string `toml:"dsn"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for blast.
//
// Configuration sections by subsystem:
//   - Paths: log directory and checkpoint/backup locations
//   - Render: external render command for script compositions
//   - Transcode: ffmpeg settings for the secondary movie encode
//   - Tracking: shot data provider backend
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Render    Render    `toml:"render"`
	Transcode Transcode `toml:"transcode"`
	Tracking  Tracking  `toml:"tracking"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the per-user configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/blast/config.toml")
}

// Load reads the configuration at path, or the first of the per-user file and
// ./blast.toml when path is empty. A missing file yields defaults. Unknown
// keys are rejected so a misspelt setting never silently falls back.
// The returned values are the config, the path consulted and whether it
// existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	candidates, err := configCandidates(path)
	if err != nil {
		return nil, "", false, err
	}
	resolved, exists := candidates[0], false
	for _, candidate := range candidates {
		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			resolved, exists = candidate, true
			break
		}
		if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return nil, "", false, fmt.Errorf("stat config: %w", statErr)
		}
	}

	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// configCandidates lists the files Load consults, most specific first.
func configCandidates(path string) ([]string, error) {
	if path = strings.TrimSpace(path); path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, err
		}
		return []string{expanded}, nil
	}
	userPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	local, err := filepath.Abs("blast.toml")
	if err != nil {
		return nil, err
	}
	return []string{userPath, local}, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// EnsureDirectories creates the directories blast writes into on every run.
// The backup root is created on a best-effort basis because it usually lives
// on shared storage that is created per project.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.BackupFallback} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.BackupRoot) != "" {
		_ = os.MkdirAll(c.Paths.BackupRoot, 0o755)
	}
	if c.Tracking.Backend == TrackingSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Tracking.Path), 0o755); err != nil {
			return fmt.Errorf("create tracking directory: %w", err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for transcodes.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Transcode.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// expandPath resolves a leading "~" and makes the path absolute. Empty
// stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
