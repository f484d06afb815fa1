package rest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Handlers holds the lifecycle hooks of an interceptor. Every hook is optional,
// a nil hook passes its input through unchanged.
//
// C is the configuration type, shared by every invocation of an interceptor
// instance. S is the per-invocation state type, allocated fresh for each call
// and shared by the hooks of that call only.
type Handlers[C, S any] struct {
	// Init runs once when the factory is invoked and may mutate config.
	Init func(config *C)

	// Request transforms the request before dispatch.
	Request func(ctx context.Context, req *Request, config *C, meta *Meta[S]) (Dispatch, error)

	// Response runs for every outcome, successful or not. On failure its
	// result keeps the invocation failed.
	Response func(ctx context.Context, resp *Response, config *C, meta *Meta[S]) (*Response, error)

	// Success runs after Response on successful outcomes.
	Success func(ctx context.Context, resp *Response, config *C, meta *Meta[S]) (*Response, error)

	// Error runs after Response on failed outcomes. Returning a nil error
	// recovers the invocation.
	Error func(ctx context.Context, resp *Response, config *C, meta *Meta[S]) (*Response, error)
}

// Meta describes the current invocation.
type Meta[S any] struct {
	// Client is the intercepted client being invoked.
	Client Client

	// State is private to this invocation.
	State *S
}

// Factory builds a client running the interceptor in front of parent. A nil
// parent means the default client, a nil config a zero one.
type Factory[C any] func(parent Client, config *C) Client

// With binds config to the factory so it can be given to Client.Wrap.
func (f Factory[C]) With(config *C) Interceptor {
	return func(parent Client) Client {
		return f(parent, config)
	}
}

// Intercept turns handlers into an interceptor factory.
//
// When the configuration struct has `validate` tags it is validated right after
// Init. An invalid configuration is a programming error and panics.
func Intercept[C, S any](h Handlers[C, S]) Factory[C] {
	return func(parent Client, config *C) Client {
		if config == nil {
			config = new(C)
		}
		if h.Init != nil {
			h.Init(config)
		}
		if err := validateConfig(config); err != nil {
			panic(fmt.Sprintf("rest: invalid %T: %v", config, err))
		}
		return &intercepted[C, S]{
			handlers: h,
			config:   config,
			parent:   parent,
		}
	}
}

var _validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(config any) error {
	v := reflect.Indirect(reflect.ValueOf(config))
	if v.Kind() != reflect.Struct {
		return nil
	}
	return _validate.Struct(config)
}

type intercepted[C, S any] struct {
	handlers Handlers[C, S]
	config   *C
	parent   Client
}

var _ Client = (*intercepted[struct{}, struct{}])(nil)

func (c *intercepted[C, S]) Wrap(i Interceptor) Client { return i(c) }

func (c *intercepted[C, S]) Skip() Client { return c.next() }

func (c *intercepted[C, S]) next() Client {
	if c.parent == nil {
		return Default
	}
	return c.parent
}

func (c *intercepted[C, S]) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}
	req.claim(c)

	meta := &Meta[S]{Client: c, State: new(S)}

	next, err := c.request(ctx, req, meta)
	if err != nil {
		return settle(req, nil, err)
	}

	var resp *Response
	switch n := next.(type) {
	case *Request:
		req = n
		resp, err = dispatch(ctx, c.next(), n)
	case UseClient:
		if n.Request != nil {
			req = n.Request
		}
		client := n.Client
		if client == nil {
			client = c.next()
		}
		resp, err = dispatch(ctx, client, req)
	case UseResponse:
		resp = n.Response
		if resp != nil && resp.Request != nil {
			req = resp.Request
		}
	case Abort:
		var aborted bool
		if n.Request != nil {
			req = n.Request
		}
		resp, aborted, err = race(ctx, c.next(), req, n)
		if aborted {
			return settle(req, resp, err)
		}
	default:
		panic(fmt.Sprintf("rest: unexpected dispatch %T", next))
	}

	resp, err = settle(req, resp, err)
	if err == nil {
		return c.succeed(ctx, resp, meta)
	}
	return c.fail(ctx, resp, err, meta)
}

func (c *intercepted[C, S]) request(ctx context.Context, req *Request, meta *Meta[S]) (next Dispatch, err error) {
	if c.handlers.Request == nil {
		return req, nil
	}
	defer recoverHandler(&err)

	next, err = c.handlers.Request(ctx, req, c.config, meta)
	if err == nil && isNil(next) {
		next = req
	}
	return next, err
}

func (c *intercepted[C, S]) succeed(ctx context.Context, resp *Response, meta *Meta[S]) (*Response, error) {
	req := resp.Request
	for _, h := range [...]responseHandler[C, S]{c.handlers.Response, c.handlers.Success} {
		out, err := c.call(ctx, h, resp, meta)
		if err != nil {
			return settle(req, out, err)
		}
		resp = out
	}
	resp.Error = nil
	return settle(req, resp, nil)
}

func (c *intercepted[C, S]) fail(ctx context.Context, resp *Response, cause error, meta *Meta[S]) (*Response, error) {
	req := resp.Request

	// Response keeps the invocation failed, whatever it returns.
	out, err := c.call(ctx, c.handlers.Response, resp, meta)
	if err != nil {
		cause = err
	}
	resp, cause = settle(req, out, cause)

	if c.handlers.Error == nil {
		return resp, cause
	}

	out, err = c.call(ctx, c.handlers.Error, resp, meta)
	if err != nil {
		return settle(req, out, err)
	}
	if out == nil {
		out = resp
	}
	if out.Request == nil {
		out.Request = req
	}
	out.Error = nil
	return out, nil
}

type responseHandler[C, S any] func(ctx context.Context, resp *Response, config *C, meta *Meta[S]) (*Response, error)

func (c *intercepted[C, S]) call(ctx context.Context, h responseHandler[C, S], resp *Response, meta *Meta[S]) (out *Response, err error) {
	if h == nil {
		return resp, nil
	}
	defer recoverHandler(&err)

	out, err = h(ctx, resp, c.config, meta)
	if out == nil {
		out = resp
	}
	return out, err
}

// dispatch hands req to client unless it was canceled beforehand.
func dispatch(ctx context.Context, client Client, req *Request) (*Response, error) {
	if req.Canceled() {
		return settle(req, nil, ErrPrecanceled)
	}
	return client.Do(ctx, req)
}

type outcome struct {
	resp *Response
	err  error
}

// race dispatches the aborted request while waiting on its signal. It reports
// whether the signal won.
func race(ctx context.Context, client Client, req *Request, abort Abort) (*Response, bool, error) {
	signal := abort.Signal
	select {
	case err := <-signal:
		return nil, true, abortErr(err)
	default:
	}

	done := make(chan outcome, 1)
	go func() {
		resp, err := dispatch(ctx, client, req)
		done <- outcome{resp, err}
	}()

	select {
	case o := <-done:
		if abort.Stop != nil && !abort.Stop() {
			return nil, true, abortErr(<-signal)
		}
		// Signals are sent before the transfer is interrupted, so a pending
		// one caused this outcome.
		select {
		case err := <-signal:
			return nil, true, abortErr(err)
		default:
		}
		return o.resp, false, o.err
	case err := <-signal:
		return nil, true, abortErr(err)
	}
}

func abortErr(err error) error {
	if err == nil {
		return ErrAborted
	}
	return err
}

func recoverHandler(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("%w: %w", ErrHandlerPanic, e)
			return
		}
		*err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
	}
}

func isNil(d Dispatch) bool {
	if d == nil {
		return true
	}
	r, ok := d.(*Request)
	return ok && r == nil
}
