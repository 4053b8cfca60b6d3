package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"blast/internal/outputs"
)

// WriteFile writes body to path, creating parent directories.
func WriteFile(t testing.TB, path, body string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFrames creates empty frames first..last of a #### sequence, the way
// a render would leave them.
func WriteFrames(t testing.TB, sequence string, first, last int) {
	t.Helper()

	for frame := first; frame <= last; frame++ {
		WriteFile(t, outputs.FramePath(sequence, frame), "")
	}
}
