package telemetry

import (
	"context"
	"time"
)

// Incr counts one occurrence of name.
func Incr(ctx context.Context, name string, tags []string) {
	FromContext(ctx).Incr(name, tags)
}

// Timing records a duration.
func Timing(ctx context.Context, name string, value time.Duration, tags []string) {
	FromContext(ctx).Timing(name, value, tags)
}
