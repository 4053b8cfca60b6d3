package services

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrConfiguration marks unknown formats, malformed catalogs and missing required nodes.
	ErrConfiguration = errors.New("configuration error")
	// ErrResource marks output directory, checkpoint and lock failures.
	ErrResource = errors.New("resource error")
	// ErrLookupMiss marks absent shot data. It never aborts a run.
	ErrLookupMiss = errors.New("lookup miss")
	// ErrExecution marks external render or encode processes that failed.
	ErrExecution = errors.New("execution error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExecution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExecutionError reports an external process that exited unsuccessfully. It
// carries the literal command and the captured stderr so the failure can be
// replayed by hand.
type ExecutionError struct {
	Command  []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString("execution error: ")
	b.WriteString(strings.Join(e.Command, " "))
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(lastLines(stderr, 5))
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError captures a failed process invocation. The exit status is
// taken from exec.ExitError when the process ran at all.
func NewExecutionError(command []string, output []byte, err error) *ExecutionError {
	execErr := &ExecutionError{
		Command: append([]string(nil), command...),
		Stderr:  strings.TrimSpace(string(output)),
		Err:     err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
		if execErr.Stderr == "" {
			execErr.Stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
	}
	return execErr
}

// Is lets errors.Is(err, ErrExecution) match every ExecutionError.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// ExitCode maps an error to the process exit status. A failed render keeps
// the render process's own exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "blast failure"
	}
	return strings.Join(parts, ": ")
}

func lastLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
