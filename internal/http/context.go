package http

import (
	"context"
	"log/slog"

	"github.com/example/prayer-companion/internal/logging"
)

type contextKey string

const (
	sourceIDContextKey     contextKey = "source_id"
	resolutionIDContextKey contextKey = "resolution_id"
)

// ContextWithSourceID injects the source identifier resolved from the request path.
func ContextWithSourceID(ctx context.Context, sourceID string) context.Context {
	return context.WithValue(ctx, sourceIDContextKey, sourceID)
}

// SourceIDFromContext extracts a source identifier previously associated with the context.
func SourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sourceIDContextKey).(string)
	return id, ok
}

// ContextWithResolutionID injects the resolution identifier resolved from the request path.
func ContextWithResolutionID(ctx context.Context, resolutionID string) context.Context {
	return context.WithValue(ctx, resolutionIDContextKey, resolutionID)
}

// ResolutionIDFromContext extracts a resolution identifier previously associated with the context.
func ResolutionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resolutionIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches the request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request-scoped logger, or nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
