package interceptor

import (
	"context"
	"fmt"

	"github.com/luizaranda/go-rest/pkg/mime"
	"github.com/luizaranda/go-rest/pkg/rest"
)

const _acceptFallbacks = ", application/json;q=0.8, text/plain;q=0.5, */*;q=0.2"

// MimeConfig configures the Mime interceptor.
type MimeConfig struct {
	// Mime is the media type of request entities when the request carries no
	// Content-Type. Defaults to text/plain.
	Mime string

	// Accept is sent when the request has no Accept header. Defaults to the
	// request media type followed by json, text and wildcard fallbacks.
	Accept string

	// Registry resolves converters. Defaults to mime.Default.
	Registry *mime.Registry

	// Permissive sends entities of unknown media types unconverted instead of
	// failing.
	Permissive bool

	// Client is handed to converters for follow-up requests. Defaults to the
	// intercepted client.
	Client rest.Client
}

// Mime converts request and response entities according to their media type.
//
// Request entities are written with the converter of the request Content-Type,
// response entities are read with the converter of the response Content-Type,
// falling back to text/plain for unknown types.
var Mime = rest.Intercept(rest.Handlers[MimeConfig, struct{}]{
	Init: func(config *MimeConfig) {
		if config.Mime == "" {
			config.Mime = "text/plain"
		}
		if config.Registry == nil {
			config.Registry = mime.Default
		}
	},
	Request: func(ctx context.Context, req *rest.Request, config *MimeConfig, meta *rest.Meta[struct{}]) (rest.Dispatch, error) {
		typ := req.Header("Content-Type")
		if typ == "" {
			typ = config.Mime
		}
		t := mime.Parse(typ)

		if req.Header("Accept") == "" {
			accept := config.Accept
			if accept == "" {
				accept = t.Raw + _acceptFallbacks
			}
			req.SetHeader("Accept", accept)
		}

		if req.Entity == nil {
			return req, nil
		}
		req.SetHeader("Content-Type", t.Raw)

		converter, err := config.Registry.Lookup(t.Raw)
		if err != nil {
			if config.Permissive {
				return req, nil
			}
			return nil, err
		}

		entity, err := converter.Write(ctx, req.Entity, mime.Options{
			Client:   mimeClient(config, meta),
			Request:  req,
			MIME:     t,
			Registry: config.Registry,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rest.ErrMimeSerialization, err)
		}
		req.Entity = entity
		return req, nil
	},
	Response: func(ctx context.Context, resp *rest.Response, config *MimeConfig, meta *rest.Meta[struct{}]) (*rest.Response, error) {
		typ := resp.Header("Content-Type")
		if typ == "" || isEmptyEntity(resp.Entity) {
			return resp, nil
		}
		t := mime.Parse(typ)

		converter, err := config.Registry.Lookup(t.Raw)
		if err != nil {
			converter = mime.PlainText
		}

		entity, err := converter.Read(ctx, resp.Entity, mime.Options{
			Client:   mimeClient(config, meta),
			Response: resp,
			MIME:     t,
			Registry: config.Registry,
		})
		if err != nil {
			return resp, fmt.Errorf("%w: %w", rest.ErrMimeDeserialization, err)
		}
		resp.Entity = entity
		return resp, nil
	},
})

func mimeClient(config *MimeConfig, meta *rest.Meta[struct{}]) rest.Client {
	if config.Client != nil {
		return config.Client
	}
	return meta.Client
}

func isEmptyEntity(v any) bool {
	switch e := v.(type) {
	case nil:
		return true
	case string:
		return e == ""
	case []byte:
		return len(e) == 0
	}
	return false
}
