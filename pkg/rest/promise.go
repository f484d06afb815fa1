package rest

import (
	"context"
	"net/http"
)

// ResponsePromise is the eventual outcome of an invocation started with
// Invoke. It settles exactly once and may be observed any number of times.
//
// Every accessor blocks until the invocation settles or ctx is done, and
// returns the invocation error alongside the requested value, so values stay
// reachable on failure paths.
type ResponsePromise struct {
	ctx    context.Context
	client Client

	done chan struct{}
	resp *Response
	err  error
}

// Invoke starts an invocation of client in its own goroutine.
func Invoke(ctx context.Context, client Client, req *Request) *ResponsePromise {
	p := newPromise(ctx, client)
	go func() {
		p.settle(client.Do(ctx, req))
	}()
	return p
}

// Resolved returns an already settled promise.
func Resolved(resp *Response, err error) *ResponsePromise {
	p := newPromise(context.Background(), nil)
	if resp != nil && resp.Request != nil {
		p.client = resp.Request.originator()
	}
	p.settle(resp, err)
	return p
}

func newPromise(ctx context.Context, client Client) *ResponsePromise {
	return &ResponsePromise{
		ctx:    context.WithoutCancel(ctx),
		client: client,
		done:   make(chan struct{}),
	}
}

func (p *ResponsePromise) settle(resp *Response, err error) {
	if resp == nil {
		resp = &Response{Error: err}
	}
	p.resp, p.err = resp, err
	close(p.done)
}

// Done returns a channel closed once the invocation settles.
func (p *ResponsePromise) Done() <-chan struct{} { return p.done }

// Await waits for the invocation and returns its outcome.
func (p *ResponsePromise) Await(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Entity returns the response entity.
func (p *ResponsePromise) Entity(ctx context.Context) (any, error) {
	resp, err := p.Await(ctx)
	if resp == nil {
		return nil, err
	}
	return resp.Entity, err
}

// Status returns the response status code.
func (p *ResponsePromise) Status(ctx context.Context) (int, error) {
	resp, err := p.Await(ctx)
	if resp == nil {
		return 0, err
	}
	return resp.Status.Code, err
}

// Headers returns the response headers.
func (p *ResponsePromise) Headers(ctx context.Context) (http.Header, error) {
	resp, err := p.Await(ctx)
	if resp == nil {
		return nil, err
	}
	return resp.Headers, err
}

// Header returns a single response header, looked up case-insensitively.
func (p *ResponsePromise) Header(ctx context.Context, name string) (string, error) {
	resp, err := p.Await(ctx)
	if resp == nil {
		return "", err
	}
	return resp.Header(name), err
}

// Rel names a relationship to follow, with optional params expanding a
// templated link or augmenting its query.
type Rel struct {
	Name   string
	Params map[string]any
}

// FollowRel is Follow for relationships without params.
func (p *ResponsePromise) FollowRel(names ...string) *ResponsePromise {
	rels := make([]Rel, len(names))
	for i, n := range names {
		rels[i] = Rel{Name: n}
	}
	return p.Follow(rels...)
}

// Follow navigates the given relationships in order, each one from the entity
// of the previous response, or from its Links when the entity does not
// advertise it. The receiver is never modified.
//
// Requests are issued by the client that produced the followed response.
func (p *ResponsePromise) Follow(rels ...Rel) *ResponsePromise {
	if len(rels) == 0 {
		return p
	}

	next := newPromise(p.ctx, p.client)
	go func() {
		next.settle(p.follow(rels))
	}()
	return next
}

func (p *ResponsePromise) follow(rels []Rel) (*Response, error) {
	resp, err := p.Await(p.ctx)
	for _, rel := range rels {
		if err != nil {
			return resp, err
		}
		resp, err = p.step(resp, rel)
	}
	return resp, err
}

func (p *ResponsePromise) step(resp *Response, rel Rel) (*Response, error) {
	links, ok := LinksOf(resp.Entity)
	if !ok && len(resp.Links) > 0 {
		links, ok = resp.Links, true
	}
	if !ok {
		return settle(resp.Request, failedCopy(resp), ErrHypermediaExpected)
	}
	link, ok := links[rel.Name]
	if !ok {
		link, ok = resp.Links[rel.Name]
	}
	if !ok {
		return settle(resp.Request, failedCopy(resp), unknownRelationship(rel.Name))
	}

	client := p.client
	if resp.Request != nil {
		if c := resp.Request.originator(); c != nil {
			client = c
		}
	}
	if client == nil {
		client = Default
	}
	return client.Do(p.ctx, link.Request(rel.Params))
}

// failedCopy keeps the data of a response a navigation failed from, leaving
// the original untouched.
func failedCopy(resp *Response) *Response {
	cp := *resp
	cp.Error = nil
	return &cp
}
