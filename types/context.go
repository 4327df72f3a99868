package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyTraceID   contextKey = "trace_id"
	keyRunID     contextKey = "run_id"
	keyIteration contextKey = "grounding_iteration"
)

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

// WithRunID adds run ID (one agent episode) to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}

// WithIteration records the grounding iteration serving the request.
func WithIteration(ctx context.Context, iteration string) context.Context {
	return context.WithValue(ctx, keyIteration, iteration)
}

// Iteration extracts the grounding iteration from context.
func Iteration(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyIteration).(string)
	return v, ok && v != ""
}
