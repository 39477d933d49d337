// Package ctxlog carries the launcher's logger through context.Context.
//
// The app attaches one logger per invocation, already scoped with the run
// id, and every layer below it (registry, framework loop, components) logs
// through FromContext. With narrows that logger further, for example to a
// single event.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a context whose logger adds args to every record.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

// FromContext extracts the logger from a context. Code running outside a
// launcher invocation, such as unit tests of a single component, gets
// slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
