// Package logging carries request-scoped loggers through context so handler
// and service layers share one enriched logger per request.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger attaches logger to a derived context. A nil context or
// logger is returned unchanged.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached by ContextWithLogger, or nil when
// the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
