package telemetry

import (
	"context"
	"time"
)

// Client records metrics and transactions. Implementations are safe for
// concurrent use.
type Client interface {
	Close() error

	// StartTransaction starts a NewRelic non-web transaction named name and
	// returns a context carrying it, plus the func that ends it. If ctx
	// already carries a transaction a segment is started instead.
	StartTransaction(ctx context.Context, name string) (context.Context, func())

	Incr(name string, tags []string)
	Timing(name string, value time.Duration, tags []string)
}
