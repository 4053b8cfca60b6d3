package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"blast/internal/services"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := services.Wrap(services.ErrResource, "output", "mkdir", "/out/review", cause)

	if !errors.Is(err, services.ErrResource) {
		t.Fatalf("expected resource marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "output: mkdir: /out/review") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExecution) {
		t.Fatalf("expected execution marker default, got %v", err)
	}
	if !strings.Contains(err.Error(), "blast failure") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestExecutionErrorClassification(t *testing.T) {
	execErr := &services.ExecutionError{
		Command:  []string{"nuke", "-x", "comp.nk"},
		Stderr:   "line1\nline2\nRead1: missing frames",
		ExitCode: 3,
	}
	wrapped := fmt.Errorf("render PREVIEW: %w", execErr)

	if !errors.Is(wrapped, services.ErrExecution) {
		t.Fatal("expected ExecutionError to match ErrExecution")
	}
	if errors.Is(wrapped, services.ErrConfiguration) {
		t.Fatal("ExecutionError must not match other markers")
	}
	if got := services.ExitCode(wrapped); got != 3 {
		t.Fatalf("expected exit code 3, got %d", got)
	}
	msg := execErr.Error()
	if !strings.Contains(msg, "nuke -x comp.nk") || !strings.Contains(msg, "missing frames") {
		t.Fatalf("expected command and stderr in message, got %q", msg)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "configuration", err: services.Wrap(services.ErrConfiguration, "catalog", "lookup", "unknown format", nil), want: 1},
		{name: "execution without code", err: &services.ExecutionError{Command: []string{"ffmpeg"}, Err: errors.New("not found")}, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := services.WithStep(services.WithFormat(services.WithRunID(context.Background(), "abc"), "PREVIEW"), "render")
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected run id %q %v", id, ok)
	}
	if f, ok := services.FormatFromContext(ctx); !ok || f != "PREVIEW" {
		t.Fatalf("unexpected format %q %v", f, ok)
	}
	if s, ok := services.StepFromContext(ctx); !ok || s != "render" {
		t.Fatalf("unexpected step %q %v", s, ok)
	}
	if services.WithRunID(context.Background(), "") != context.Background() {
		t.Fatal("empty run id should return the parent context")
	}
}
