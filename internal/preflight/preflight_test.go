package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"blast/internal/config"
	"blast/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCreatable_MissingLeaf(t *testing.T) {
	base := t.TempDir()
	result := CheckCreatable("backup", filepath.Join(base, "show", "shots"))
	if !result.Passed {
		t.Fatalf("a missing leaf under a writable dir should pass: %s", result.Detail)
	}
}

func TestCheckCreatable_FileInTheWay(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckCreatable("backup", filepath.Join(f, "child")); result.Passed {
		t.Fatal("expected failure when the nearest ancestor is a file")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected at least one free byte: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "later"), ^uint64(0)); result.Passed {
		t.Fatal("no filesystem has that much space")
	}
}

func TestCheckTracking(t *testing.T) {
	ctx := context.Background()
	if result := CheckTracking(ctx, config.Tracking{Backend: config.TrackingNone}); !result.Passed {
		t.Fatalf("disabled tracking should pass: %s", result.Detail)
	}
	path := filepath.Join(t.TempDir(), "tracking.db")
	if result := CheckTracking(ctx, config.Tracking{Backend: config.TrackingSQLite, Path: path}); !result.Passed {
		t.Fatalf("sqlite check failed: %s", result.Detail)
	}
	if result := CheckTracking(ctx, config.Tracking{Backend: "oracle"}); result.Passed {
		t.Fatal("unsupported backend should fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_TestConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range Failed(results) {
		// Free space depends on the machine running the tests.
		if r.Name != "Backup root space" {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("nuke", "ffmpeg"))
	cfg.Render.Command = "nuke"

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected renderer and ffmpeg, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Errorf("%s unavailable: %s", s.Name, s.Detail)
		}
	}
}
