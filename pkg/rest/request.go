package rest

import (
	"net/http"
	"sync"
)

// Request is the mutable record flowing through a chain of interceptors down to
// the root client. Interceptors transform it in place during the request phase.
type Request struct {
	// Method defaults to GET, or POST when Entity is set, once it reaches the
	// root client.
	Method string

	// Path is either a template or an absolute/relative URI.
	Path string

	Headers http.Header

	// Params are consumed by path templating. Whatever is left when the request
	// reaches the root client is appended as query parameters.
	Params map[string]any

	Entity any

	// Mixin carries opaque values for the transport.
	Mixin map[string]any

	// Attributes carries per-request settings read by interceptors, such as a
	// timeout override or credentials. See the interceptor package for the
	// recognized keys.
	Attributes map[string]any

	// Originator is the client that first saw this request. It is set once by
	// the outermost intercepted client and never overwritten.
	Originator Client

	mu       sync.Mutex
	canceled bool
	canceler func()
}

// Path is shorthand for a request carrying only a path.
func Path(path string) *Request {
	return &Request{Path: path}
}

// Header returns the first value of the named request header.
func (r *Request) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// SetHeader sets a request header, allocating the header map if needed.
func (r *Request) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Set(name, value)
}

// Attr returns the attribute stored under key.
func (r *Request) Attr(key string) (any, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// SetAttr stores an attribute, allocating the attribute map if needed.
func (r *Request) SetAttr(key string, value any) *Request {
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	r.Attributes[key] = value
	return r
}

// Cancel marks the request as canceled and triggers the canceler installed by
// the transport, if any. A request canceled before dispatch never reaches the
// transport.
func (r *Request) Cancel() {
	r.mu.Lock()
	r.canceled = true
	cancel := r.canceler
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Interrupt triggers the canceler installed by the transport without marking
// the request canceled, so it can be dispatched again.
func (r *Request) Interrupt() {
	r.mu.Lock()
	cancel := r.canceler
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Canceled reports whether Cancel was called.
func (r *Request) Canceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canceled
}

// SetCanceled overrides the canceled flag without triggering the canceler.
// Transient timeouts use it to leave a request usable for another attempt.
func (r *Request) SetCanceled(canceled bool) {
	r.mu.Lock()
	r.canceled = canceled
	r.mu.Unlock()
}

// SetCanceler installs the function Cancel triggers. Transports call it once
// dispatch begins.
func (r *Request) SetCanceler(cancel func()) {
	r.mu.Lock()
	r.canceler = cancel
	r.mu.Unlock()
}

func (r *Request) claim(c Client) {
	r.mu.Lock()
	if r.Originator == nil {
		r.Originator = c
	}
	r.mu.Unlock()
}

func (r *Request) originator() Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Originator
}
