package preflight

import (
	"context"

	"blast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the filesystem and tracking checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckCreatable("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.BackupRoot != "" {
		results = append(results,
			CheckCreatable("Backup root", cfg.Paths.BackupRoot),
			CheckFreeSpace("Backup root space", cfg.Paths.BackupRoot, MinFreeBytes),
		)
	}
	results = append(results, CheckCreatable("Backup fallback", cfg.Paths.BackupFallback))
	results = append(results, CheckTracking(ctx, cfg.Tracking))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
