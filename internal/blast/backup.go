package blast

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"blast/internal/config"
	"blast/internal/textutil"
	"blast/internal/transcode"
)

const backupDirName = "blast_backup"

// BackupDir is the directory holding checkpoints for a shot or asset.
// Shots named GROUP_SHOT nest under their group.
func BackupDir(paths config.Paths, project, shot, asset string) string {
	root := strings.TrimSpace(paths.BackupRoot)
	if root == "" || (shot == "" && asset == "") {
		return paths.BackupFallback
	}
	project = textutil.SanitizeFileName(project)
	if shot != "" {
		if group, name, ok := strings.Cut(shot, "_"); ok && group != "" && name != "" {
			return filepath.Join(root, project, "shots", textutil.SanitizeFileName(group), textutil.SanitizeFileName(name), backupDirName)
		}
		return filepath.Join(root, project, "shots", textutil.SanitizeFileName(shot), backupDirName)
	}
	return filepath.Join(root, project, "assets", textutil.SanitizeFileName(asset), backupDirName)
}

// CheckpointName builds {tag}_{user}_{MM_DD_YY_HH_MM}_{format}{ext}.
func CheckpointName(tag, user string, at time.Time, format, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%s%s",
		textutil.SanitizeTag(tag),
		textutil.SanitizeTag(user),
		at.Format(transcode.TimestampLayout),
		textutil.SanitizeTag(format),
		ext,
	)
}

// FinalBackupPath appends the session extension to the configured final
// backup path unless it already carries one.
func FinalBackupPath(paths config.Paths, sessionExt string) string {
	path := paths.FinalBackupPath
	if filepath.Ext(path) == "" {
		path += sessionExt
	}
	return path
}
