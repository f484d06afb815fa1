package telemetry

import (
	"context"
)

type telemetryClientCtxKey struct{}

// Context returns a copy of ctx carrying client. Metrics should then be
// recorded through the static functions of this package.
func Context(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, telemetryClientCtxKey{}, client)
}

// FromContext returns the Client set with Context, or DefaultTracer.
func FromContext(ctx context.Context) Client {
	client, _ := ctx.Value(telemetryClientCtxKey{}).(Client)
	if client == nil {
		return DefaultTracer
	}
	return client
}

// StartTransaction starts a transaction on the context client.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	return FromContext(ctx).StartTransaction(ctx, name)
}
