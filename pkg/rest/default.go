package rest

import (
	"context"
	"sync"
)

// DefaultClientRegistry holds the client used by interceptors created without
// an explicit parent. The slot is consulted on every invocation, so replacing
// the default affects clients created earlier.
type DefaultClientRegistry struct {
	mu       sync.RWMutex
	client   Client
	platform func() Client

	once     sync.Once
	fallback Client
}

// NewDefaultClientRegistry returns a registry whose platform default is built
// lazily by platform. A nil platform builds a client with NewHTTPClient.
func NewDefaultClientRegistry(platform func() Client) *DefaultClientRegistry {
	if platform == nil {
		platform = func() Client { return NewHTTPClient() }
	}
	return &DefaultClientRegistry{platform: platform}
}

// Get returns the current default client.
func (r *DefaultClientRegistry) Get() Client {
	r.mu.RLock()
	c := r.client
	r.mu.RUnlock()
	if c != nil {
		return c
	}
	return r.platformDefault()
}

// Set replaces the default client. A nil client restores the platform default.
func (r *DefaultClientRegistry) Set(c Client) {
	r.mu.Lock()
	r.client = c
	r.mu.Unlock()
}

// Reset restores the platform default.
func (r *DefaultClientRegistry) Reset() { r.Set(nil) }

func (r *DefaultClientRegistry) platformDefault() Client {
	r.once.Do(func() {
		r.fallback = r.platform()
	})
	return r.fallback
}

// Defaults is the process-wide default client slot. Its platform default is
// an HTTP client built with NewHTTPClient.
var Defaults = NewDefaultClientRegistry(nil)

// Default is a client that forwards every invocation to whatever Defaults
// holds at call time.
var Default Client = defaultClient{registry: Defaults}

type defaultClient struct {
	registry *DefaultClientRegistry
}

func (d defaultClient) Do(ctx context.Context, req *Request) (*Response, error) {
	return d.registry.Get().Do(ctx, req)
}

func (d defaultClient) Wrap(i Interceptor) Client { return i(d) }

func (d defaultClient) Skip() Client { return nil }
