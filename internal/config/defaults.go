package config

import (
	"os"
	"path/filepath"
)

// Tracking backends.
const (
	TrackingSQLite   = "sqlite"
	TrackingPostgres = "postgres"
	TrackingNone     = "none"
)

const (
	defaultLogDir              = "~/.local/share/blast/logs"
	defaultBackupRoot          = "~/projects"
	defaultTrackingPath        = "~/.local/share/blast/tracking.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultRenderCommand       = "nuke"
	defaultRenderTimeout       = 240
	defaultFFmpegBinary        = "ffmpeg"
	defaultIntermediateExt     = ".png"
	defaultTranscodeFPS        = 23.976
	defaultTranscodeCodec      = "libx264"
	defaultTranscodePixFmt     = "yuv420p"
	defaultTranscodePreset     = "fast"
	defaultTranscodeBitrate    = "5M"
	defaultTranscodeBufSize    = "10M"
	defaultFinalBackupBasename = "blast_backup"
)

var defaultRenderArgs = []string{"-x", "-F", "{start}-{end}x{step}", "-X", "{node}", "{script}"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:          defaultLogDir,
			BackupRoot:      defaultBackupRoot,
			BackupFallback:  defaultBackupFallbackDir(),
			FinalBackupPath: filepath.Join(os.TempDir(), defaultFinalBackupBasename),
		},
		Render: Render{
			Command:        defaultRenderCommand,
			Args:           append([]string(nil), defaultRenderArgs...),
			TimeoutMinutes: defaultRenderTimeout,
		},
		Transcode: Transcode{
			FFmpegBinary:    defaultFFmpegBinary,
			IntermediateExt: defaultIntermediateExt,
			FPS:             defaultTranscodeFPS,
			VideoCodec:      defaultTranscodeCodec,
			PixelFormat:     defaultTranscodePixFmt,
			Preset:          defaultTranscodePreset,
			Bitrate:         defaultTranscodeBitrate,
			MaxRate:         defaultTranscodeBitrate,
			BufSize:         defaultTranscodeBufSize,
		},
		Tracking: Tracking{
			Backend: TrackingSQLite,
			Path:    defaultTrackingPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultBackupFallbackDir() string {
	return filepath.Join(os.TempDir(), "BlastBackup")
}
