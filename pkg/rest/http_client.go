package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
	"github.com/luizaranda/go-rest/pkg/transport/httpclient"
	"github.com/luizaranda/go-rest/pkg/urlbuilder"
)

// Request attributes read by the HTTP client.
const (
	// AttrTargetID tags the request metrics with a target_id.
	AttrTargetID = "targetID"

	// AttrEndpointTemplate is the unexpanded path of the request. Interceptors
	// expanding templates set it so metrics and spans are keyed by it.
	AttrEndpointTemplate = "endpointTemplate"
)

// HTTPRaw is the Raw value of responses produced by the HTTP client.
type HTTPRaw struct {
	Request  *http.Request
	Response *http.Response
}

// HTTPOption configures NewHTTPClient.
type HTTPOption interface {
	applyHTTP(*httpOptions)
}

type httpOptions struct {
	client     *http.Client
	clientOpts []httpclient.Option
}

type httpOptFunc func(*httpOptions)

func (f httpOptFunc) applyHTTP(o *httpOptions) { f(o) }

// WithHTTPClient makes the client dispatch through c instead of a client
// built by httpclient.New.
func WithHTTPClient(c *http.Client) HTTPOption {
	return httpOptFunc(func(o *httpOptions) {
		o.client = c
	})
}

// WithClientOptions configures the *http.Client built by httpclient.New.
func WithClientOptions(opts ...httpclient.Option) HTTPOption {
	return httpOptFunc(func(o *httpOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	})
}

// HTTPClient is the root client speaking HTTP.
//
// The method defaults to GET, or POST when the request has an entity. Params
// left on the request are appended to the path as a query. The entity must
// be nil, a string, a []byte or an io.Reader; content negotiation is left to
// interceptors. Response entities are the body as a string, or nil for an
// empty body.
type HTTPClient struct {
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns an HTTP root client.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	var o httpOptions
	for _, opt := range opts {
		opt.applyHTTP(&o)
	}
	if o.client == nil {
		o.client = httpclient.New(o.clientOpts...)
	}
	return &HTTPClient{client: o.client}
}

func (c *HTTPClient) Wrap(i Interceptor) Client { return i(c) }

func (c *HTTPClient) Skip() Client { return nil }

func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}
	req.claim(c)
	if req.Canceled() {
		return settle(req, nil, ErrPrecanceled)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
		if req.Entity != nil {
			method = http.MethodPost
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	req.SetCanceler(cancel)
	defer req.SetCanceler(nil)
	if req.Canceled() {
		return settle(req, nil, ErrPrecanceled)
	}

	if v, ok := req.Attr(AttrTargetID); ok {
		ctx = tracing.WithTargetID(ctx, fmt.Sprint(v))
	}
	if v, ok := req.Attr(AttrEndpointTemplate); ok {
		ctx = tracing.WithEndpointTemplate(ctx, fmt.Sprint(v))
	}

	url := urlbuilder.New(req.Path, req.Params).Build()

	hreq, err := httpclient.NewRequest(ctx, method, url, req.Entity)
	if err != nil {
		return settle(req, nil, fmt.Errorf("%w: %w", ErrLoad, err))
	}
	for name, values := range req.Headers {
		for _, v := range values {
			hreq.Header.Add(name, v)
		}
	}

	resp := &Response{Request: req, Raw: HTTPRaw{Request: hreq}}

	hres, err := c.client.Do(hreq)
	if err != nil {
		return settle(req, resp, c.classify(ctx, req, err))
	}
	defer hres.Body.Close()

	resp.Raw = HTTPRaw{Request: hreq, Response: hres}
	resp.Status = Status{Code: hres.StatusCode, Text: statusText(hres)}
	resp.Headers = hres.Header

	body, err := io.ReadAll(hres.Body)
	if err != nil {
		return settle(req, resp, c.classify(ctx, req, err))
	}
	if len(body) > 0 {
		resp.Entity = string(body)
	}

	// A Cancel racing the end of the exchange still fails the invocation.
	if req.Canceled() {
		return settle(req, resp, ErrCanceled)
	}
	return settle(req, resp, nil)
}

func (c *HTTPClient) classify(ctx context.Context, req *Request, err error) error {
	switch {
	case req.Canceled():
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	default:
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
}

func statusText(res *http.Response) string {
	if text, ok := strings.CutPrefix(res.Status, fmt.Sprintf("%d ", res.StatusCode)); ok {
		return text
	}
	return http.StatusText(res.StatusCode)
}
