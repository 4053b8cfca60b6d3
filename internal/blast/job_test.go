package blast

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"blast/internal/config"
	"blast/internal/services"
)

func TestJobRequestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		filename string
		want     string
	}{
		{name: "derived from input", file: "/plates/AB_010.####.exr", want: "AB_010.####"},
		{name: "derived without token stays bare", file: "/plates/AB_010.mov", want: "AB_010"},
		{name: "explicit gets token", file: "/plates/AB_010.####.exr", filename: "client_v01", want: "client_v01.####"},
		{name: "explicit with token kept", filename: "client.####_v01", want: "client.####_v01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JobRequest{File: tt.file, Filename: tt.filename}.Normalize()
			if got.Filename != tt.want {
				t.Fatalf("Filename = %q, want %q", got.Filename, tt.want)
			}
		})
	}

	req := JobRequest{Formats: []string{" PREVIEW ", "", "CLIENT"}}.Normalize()
	if !reflect.DeepEqual(req.Formats, []string{"PREVIEW", "CLIENT"}) {
		t.Fatalf("Formats = %v", req.Formats)
	}
}

func TestJobRequestValidate(t *testing.T) {
	valid := JobRequest{Comp: "/c.json", Output: "/out", Filename: "a.####", Formats: []string{"P"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	broken := valid
	broken.Formats = nil
	if err := broken.Validate(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	broken = valid
	broken.Output = ""
	if err := broken.Validate(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBackupDir(t *testing.T) {
	paths := config.Paths{BackupRoot: "/projects", BackupFallback: "/tmp/BlastBackup"}
	tests := []struct {
		name  string
		shot  string
		asset string
		want  string
	}{
		{name: "grouped shot", shot: "AB_010", want: "/projects/show/shots/AB/010/blast_backup"},
		{name: "plain shot", shot: "AB010", want: "/projects/show/shots/AB010/blast_backup"},
		{name: "shot wins over asset", shot: "AB_010", asset: "robot", want: "/projects/show/shots/AB/010/blast_backup"},
		{name: "asset", asset: "robot", want: "/projects/show/assets/robot/blast_backup"},
		{name: "neither", want: "/tmp/BlastBackup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BackupDir(paths, "show", tt.shot, tt.asset)
			if got != filepath.FromSlash(tt.want) {
				t.Fatalf("BackupDir = %q, want %q", got, tt.want)
			}
		})
	}

	if got := BackupDir(config.Paths{BackupFallback: "/fallback"}, "show", "AB_010", ""); got != "/fallback" {
		t.Fatalf("without a backup root the fallback is used, got %q", got)
	}
}

func TestCheckpointName(t *testing.T) {
	at := time.Date(2026, 1, 3, 9, 7, 0, 0, time.UTC)
	got := CheckpointName("AB_010", "jdoe", at, "CLIENT MOV", ".json")
	if want := "AB_010_jdoe_01_03_26_09_07_CLIENT_MOV.json"; got != want {
		t.Fatalf("CheckpointName = %q, want %q", got, want)
	}
	if got := CheckpointName("robot", "", at, "PREVIEW", ".nk"); got != "robot__01_03_26_09_07_PREVIEW.nk" {
		t.Fatalf("unknown user leaves an empty tag, got %q", got)
	}
}

func TestFinalBackupPath(t *testing.T) {
	if got := FinalBackupPath(config.Paths{FinalBackupPath: "/tmp/blast_backup"}, ".json"); got != "/tmp/blast_backup.json" {
		t.Fatalf("got %q", got)
	}
	if got := FinalBackupPath(config.Paths{FinalBackupPath: "/tmp/keep.nk"}, ".json"); got != "/tmp/keep.nk" {
		t.Fatalf("got %q", got)
	}
}
