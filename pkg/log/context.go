package log

import (
	"context"
)

type logCtxKey struct{}

// Context returns a copy of ctx carrying the given logger.
//
// Once a context has a logger, logging should be made through the static
// functions of this package.
func Context(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, l)
}

// FromContext returns the logger set with Context, or DefaultLogger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(logCtxKey{}).(Logger); ok {
		return l
	}
	return DefaultLogger
}

// Named adds a path segment to the name of the context logger.
func Named(ctx context.Context, s string) context.Context {
	return Context(ctx, FromContext(ctx).Named(s))
}

// With returns a context whose logger carries the given fields.
func With(ctx context.Context, fields ...Field) context.Context {
	return Context(ctx, FromContext(ctx).With(fields...))
}

// WithLevel returns a context whose logger only logs at lvl or above.
func WithLevel(ctx context.Context, lvl Level) context.Context {
	return Context(ctx, FromContext(ctx).WithLevel(lvl))
}

// Debug logs a message at DebugLevel using the context logger.
func Debug(ctx context.Context, msg string, fields ...Field) {
	FromContext(ctx).Debug(msg, fields...)
}

// Info logs a message at InfoLevel using the context logger.
func Info(ctx context.Context, msg string, fields ...Field) {
	FromContext(ctx).Info(msg, fields...)
}

// Warn logs a message at WarnLevel using the context logger.
func Warn(ctx context.Context, msg string, fields ...Field) {
	FromContext(ctx).Warn(msg, fields...)
}

// Error logs a message at ErrorLevel using the context logger.
func Error(ctx context.Context, msg string, fields ...Field) {
	FromContext(ctx).Error(msg, fields...)
}
