package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	caseKey      contextKey = "case"
	iterationKey contextKey = "iteration"
)

// WithRunID annotates context with the pipeline run identifier.
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

// WithStage annotates context with the stage label.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage label if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithCase annotates context with the pipeline case (baseline or rotated).
func WithCase(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, caseKey, name)
}

// CaseFromContext returns the pipeline case if present.
func CaseFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(caseKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithIteration annotates context with the inner loop iteration index.
func WithIteration(ctx context.Context, i int) context.Context {
	return context.WithValue(ctx, iterationKey, i)
}

// IterationFromContext extracts the loop iteration if present.
func IterationFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(iterationKey).(int)
	return v, ok
}
