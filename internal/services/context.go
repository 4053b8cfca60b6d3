package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	formatKey contextKey = "format"
	stepKey   contextKey = "step"
)

// WithRunID annotates context with the per-invocation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFormat annotates context with the format currently being produced.
func WithFormat(ctx context.Context, format string) context.Context {
	if format == "" {
		return ctx
	}
	return context.WithValue(ctx, formatKey, format)
}

// FormatFromContext returns the format name if present.
func FormatFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(formatKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the orchestration step name.
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stepKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
