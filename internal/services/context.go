package services

import "context"

type (
	sessionIDKey     struct{}
	runIDKey         struct{}
	stageKey         struct{}
	correlationIDKey struct{}
)

// WithSessionID annotates ctx with the chat session identifier.
func WithSessionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func SessionIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(int64)
	return id, ok
}

// WithRunID annotates ctx with the pipeline run identifier. Empty ids leave
// ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey{}, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey{})
}

// WithStage annotates ctx with the current pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey{}, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey{})
}

// WithCorrelationID annotates ctx with the id of the inbound chat message that
// triggered the work.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withString(ctx, correlationIDKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, correlationIDKey{})
}

func withString(ctx context.Context, key any, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key any) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
