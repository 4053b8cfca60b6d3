package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary review transcodes will execute. A
// configured path is used as is; a bare name is resolved from PATH, falling
// back to an ffmpeg that sits next to the render command.
func CheckFFmpeg(configured, renderCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Encodes review movies from rendered frames",
		Optional:    true,
	}
	binary := strings.TrimSpace(configured)
	if binary == "" {
		binary = executableName("ffmpeg")
	}
	result.Command = binary

	if filepath.IsAbs(binary) {
		if info, err := os.Stat(binary); err == nil && isExecutable(info) {
			result.Available = true
			result.Resolved = binary
			return result
		}
		result.Detail = fmt.Sprintf("binary %q is not executable", binary)
		return result
	}

	if resolved, err := exec.LookPath(binary); err == nil {
		result.Available = true
		result.Resolved = resolved
		return result
	}
	if render := strings.TrimSpace(renderCommand); render != "" {
		if resolved, err := exec.LookPath(render); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName("ffmpeg"))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Available = true
				result.Resolved = candidate
				return result
			}
		}
	}
	result.Detail = fmt.Sprintf("binary %q not found", binary)
	return result
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
