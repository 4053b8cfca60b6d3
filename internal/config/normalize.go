package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeTranscode()
	if err := c.normalizeTracking(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.BackupRoot, err = expandPath(strings.TrimSpace(c.Paths.BackupRoot)); err != nil {
		return fmt.Errorf("paths.backup_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupFallback) == "" {
		c.Paths.BackupFallback = defaultBackupFallbackDir()
	}
	if c.Paths.BackupFallback, err = expandPath(c.Paths.BackupFallback); err != nil {
		return fmt.Errorf("paths.backup_fallback_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FinalBackupPath) == "" {
		c.Paths.FinalBackupPath = Default().Paths.FinalBackupPath
	}
	if c.Paths.FinalBackupPath, err = expandPath(c.Paths.FinalBackupPath); err != nil {
		return fmt.Errorf("paths.final_backup_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Command = strings.TrimSpace(c.Render.Command)
	if c.Render.Command == "" {
		if value, ok := os.LookupEnv("BLAST_RENDER_COMMAND"); ok && strings.TrimSpace(value) != "" {
			c.Render.Command = strings.TrimSpace(value)
		} else {
			c.Render.Command = defaultRenderCommand
		}
	}
	if len(c.Render.Args) == 0 {
		c.Render.Args = append([]string(nil), defaultRenderArgs...)
	}
	if c.Render.TimeoutMinutes < 0 {
		c.Render.TimeoutMinutes = 0
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	ext := strings.ToLower(strings.TrimSpace(c.Transcode.IntermediateExt))
	if ext == "" {
		ext = defaultIntermediateExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Transcode.IntermediateExt = ext
	if c.Transcode.FPS <= 0 {
		c.Transcode.FPS = defaultTranscodeFPS
	}
	defaults := map[*string]string{
		&c.Transcode.VideoCodec:  defaultTranscodeCodec,
		&c.Transcode.PixelFormat: defaultTranscodePixFmt,
		&c.Transcode.Preset:      defaultTranscodePreset,
		&c.Transcode.Bitrate:     defaultTranscodeBitrate,
		&c.Transcode.BufSize:     defaultTranscodeBufSize,
	}
	for field, fallback := range defaults {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			*field = fallback
		}
	}
	c.Transcode.MaxRate = strings.TrimSpace(c.Transcode.MaxRate)
	if c.Transcode.MaxRate == "" {
		c.Transcode.MaxRate = c.Transcode.Bitrate
	}
}

func (c *Config) normalizeTracking() error {
	c.Tracking.Backend = strings.ToLower(strings.TrimSpace(c.Tracking.Backend))
	if c.Tracking.Backend == "" {
		c.Tracking.Backend = TrackingSQLite
	}
	c.Tracking.DSN = strings.TrimSpace(c.Tracking.DSN)
	if c.Tracking.DSN == "" {
		if value, ok := os.LookupEnv("BLAST_TRACKING_DSN"); ok {
			c.Tracking.DSN = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Tracking.Path) == "" {
		c.Tracking.Path = defaultTrackingPath
	}
	var err error
	if c.Tracking.Path, err = expandPath(c.Tracking.Path); err != nil {
		return fmt.Errorf("tracking.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
