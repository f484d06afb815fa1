// Package tracing carries the identifiers used to tag outgoing requests in
// metrics and traces.
package tracing

import (
	"context"
)

type targetIDCtxKey struct{}

// WithTargetID sets the name of the service being called. It becomes the
// target_id tag of client metrics.
func WithTargetID(ctx context.Context, targetID string) context.Context {
	return context.WithValue(ctx, targetIDCtxKey{}, targetID)
}

// TargetID returns the target set with WithTargetID, or "".
func TargetID(ctx context.Context) string {
	value, _ := ctx.Value(targetIDCtxKey{}).(string)
	return value
}

type endpointTemplateKey struct{}

// WithEndpointTemplate sets the unexpanded path template of the request, so
// that metrics and spans are not keyed by concrete URLs.
func WithEndpointTemplate(ctx context.Context, endpointTemplate string) context.Context {
	return context.WithValue(ctx, endpointTemplateKey{}, endpointTemplate)
}

// EndpointTemplate returns the template set with WithEndpointTemplate, or "".
func EndpointTemplate(ctx context.Context) string {
	value, _ := ctx.Value(endpointTemplateKey{}).(string)
	return value
}

// Bucket returns the target, falling back to the endpoint template. It keys
// per-destination state such as circuit breakers.
func Bucket(ctx context.Context) string {
	if target := TargetID(ctx); target != "" {
		return target
	}
	return EndpointTemplate(ctx)
}
