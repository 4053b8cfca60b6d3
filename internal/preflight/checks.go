package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"blast/internal/config"
	"blast/internal/deps"
	"blast/internal/tracking"
	"blast/internal/tracking/pgstore"
)

// MinFreeBytes is the free space below which an output location is reported.
const MinFreeBytes = 2 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatable verifies that path exists as a writable directory or can be
// created under its nearest existing ancestor. Blast creates checkpoint
// directories on demand, so a missing leaf is fine.
func CheckCreatable(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	dir := filepath.Clean(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		dir = parent
	}
	result := CheckDirectoryAccess(name, dir)
	if result.Passed && dir != filepath.Clean(path) {
		result.Detail = fmt.Sprintf("%s (created on demand under %s)", path, dir)
	}
	return result
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(nearestExisting(path), &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))
	if free < minBytes {
		return Result{Name: name, Detail: detail + " below threshold"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func nearestExisting(path string) string {
	dir := filepath.Clean(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// CheckTracking verifies that the configured shot data backend answers.
func CheckTracking(ctx context.Context, cfg config.Tracking) Result {
	const name = "Tracking"

	switch cfg.Backend {
	case config.TrackingNone:
		return Result{Name: name, Passed: true, Detail: "disabled (every shot data lookup misses)"}
	case config.TrackingSQLite:
		store, err := tracking.OpenPath(cfg.Path)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("sqlite %s (error: %v)", cfg.Path, err)}
		}
		_ = store.Close()
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("sqlite %s", cfg.Path)}
	case config.TrackingPostgres:
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		store, err := pgstore.Connect(checkCtx, cfg.DSN)
		if err != nil {
			return Result{Name: name, Detail: summarizeConnectError(err)}
		}
		_ = store.Close()
		return Result{Name: name, Passed: true, Detail: "postgres reachable"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported backend %q", cfg.Backend)}
	}
}

// CheckSystemDeps evaluates the external programs blast runs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Renderer",
			Command:     cfg.Render.Command,
			Description: "Renders committed checkpoints",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	return append(statuses, deps.CheckFFmpeg(cfg.FFmpegBinary(), cfg.Render.Command))
}

func summarizeConnectError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "postgres connection timed out"
	}
	return fmt.Sprintf("postgres unreachable (%v)", err)
}
