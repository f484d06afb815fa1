package mime

import (
	"context"
	"fmt"
	"sync"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// Options is given to converters alongside the payload.
type Options struct {
	// Client issues follow-up requests, such as relationship fetches.
	Client rest.Client

	Request  *rest.Request
	Response *rest.Response

	// MIME is the negotiated media type.
	MIME Type

	// Registry is the registry the converter was resolved from.
	Registry *Registry
}

// Converter translates between payloads and Go values for a media type.
type Converter interface {
	// Read decodes a response payload.
	Read(ctx context.Context, payload any, opts Options) (any, error)

	// Write encodes a request entity.
	Write(ctx context.Context, value any, opts Options) (any, error)
}

// Registry resolves converters by media type. Lookups fall back to the parent
// registry; registrations never leak into it.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
	parent     *Registry
}

// NewRegistry returns an empty root registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// Default is the process wide registry holding the built-in converters.
var Default = newDefault()

func newDefault() *Registry {
	r := NewRegistry()
	r.Register("text/plain", PlainText)
	r.Register("application/json", JSON)
	r.Register("+json", r.Delegate("application/json"))
	r.Register("application/hal+json", HAL)
	r.Register("application/x-www-form-urlencoded", FormURLEncoded)
	r.Register("multipart/form-data", MultipartFormData)
	r.Register("application/yaml", YAML)
	r.Register("text/yaml", r.Delegate("application/yaml"))
	r.Register("+yaml", r.Delegate("application/yaml"))
	return r
}

// Child returns a registry inheriting every converter of r.
func (r *Registry) Child() *Registry {
	c := NewRegistry()
	c.parent = r
	return c
}

// Register binds a converter to a media type, or to a structured syntax suffix
// when typ is of the form "+suffix".
func (r *Registry) Register(typ string, c Converter) {
	key := registryKey(Parse(typ))
	r.mu.Lock()
	r.converters[key] = c
	r.mu.Unlock()
}

func registryKey(t Type) string {
	if t.Type == "" {
		return t.Suffix
	}
	return t.Type
}

// Lookup resolves the converter for a media type. The type without suffix is
// tried first through the whole registry chain, then the suffix. Parameters
// are ignored.
func (r *Registry) Lookup(typ string) (Converter, error) {
	t := Parse(typ)
	if t.Type != "" {
		if c, ok := r.find(t.Type); ok {
			return c, nil
		}
	}
	if t.Suffix != "" {
		if c, ok := r.find(t.Suffix); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", rest.ErrMimeUnknown, typ)
}

func (r *Registry) find(key string) (Converter, bool) {
	for reg := r; reg != nil; reg = reg.parent {
		reg.mu.RLock()
		c, ok := reg.converters[key]
		reg.mu.RUnlock()
		if ok {
			return c, true
		}
	}
	return nil, false
}

// Delegate returns a converter forwarding to whatever converter r resolves for
// typ at call time.
func (r *Registry) Delegate(typ string) Converter {
	return delegate{registry: r, typ: typ}
}

type delegate struct {
	registry *Registry
	typ      string
}

func (d delegate) Read(ctx context.Context, payload any, opts Options) (any, error) {
	c, err := d.registry.Lookup(d.typ)
	if err != nil {
		return nil, err
	}
	return c.Read(ctx, payload, opts)
}

func (d delegate) Write(ctx context.Context, value any, opts Options) (any, error) {
	c, err := d.registry.Lookup(d.typ)
	if err != nil {
		return nil, err
	}
	return c.Write(ctx, value, opts)
}

// ConverterFuncs adapts a pair of functions into a Converter. A nil function
// fails with an unsupported operation error.
type ConverterFuncs struct {
	ReadFunc  func(ctx context.Context, payload any, opts Options) (any, error)
	WriteFunc func(ctx context.Context, value any, opts Options) (any, error)
}

func (c ConverterFuncs) Read(ctx context.Context, payload any, opts Options) (any, error) {
	if c.ReadFunc == nil {
		return nil, fmt.Errorf("mime: read not supported for %s", opts.MIME.Raw)
	}
	return c.ReadFunc(ctx, payload, opts)
}

func (c ConverterFuncs) Write(ctx context.Context, value any, opts Options) (any, error) {
	if c.WriteFunc == nil {
		return nil, fmt.Errorf("mime: write not supported for %s", opts.MIME.Raw)
	}
	return c.WriteFunc(ctx, value, opts)
}

// payloadString returns the textual form of a raw payload.
func payloadString(payload any) (string, error) {
	switch p := payload.(type) {
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	case fmt.Stringer:
		return p.String(), nil
	default:
		return "", fmt.Errorf("mime: unexpected payload type %T", payload)
	}
}
