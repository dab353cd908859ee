package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// With stores a child logger carrying the given fields in the context.
// Handlers downstream pick it up through From, so per-request fields like
// the trace id follow the request without threading a logger explicitly.
func With(ctx context.Context, fields ...any) context.Context {
	scoped := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, scoped)
}

// From retrieves the context-scoped logger. Falls back to the process
// logger when the context carries none.
func From(ctx context.Context) *slog.Logger {
	if scoped, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return scoped
	}
	return LoggerWrapper()
}
