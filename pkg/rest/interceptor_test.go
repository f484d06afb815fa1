package rest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIntercept_IdentityPassesThrough(t *testing.T) {
	root := &stubClient{handle: func(_ context.Context, req *Request) (*Response, error) {
		return &Response{Status: Status{Code: 200}, Entity: req.Path}, nil
	}}
	client := root.Wrap(identity.With(nil))

	req := Path("/hello")
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Request != req {
		t.Error("expected response to reference the request")
	}
	if resp.Entity != "/hello" {
		t.Errorf("expected entity /hello, got %v", resp.Entity)
	}
	if req.Originator != client {
		t.Error("expected the intercepted client to claim the request")
	}
	if client.Skip() != root {
		t.Error("expected Skip to return the parent")
	}
}

func TestIntercept_NilRequest(t *testing.T) {
	client := (&stubClient{}).Wrap(identity.With(nil))

	resp, err := client.Do(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Request == nil {
		t.Error("expected a normalized request")
	}
}

func TestWrap_Ordering(t *testing.T) {
	var events []string
	client := (&stubClient{}).
		Wrap(trace("a", &events)).
		Wrap(trace("b", &events)).
		Wrap(trace("c", &events))

	if _, err := client.Do(context.Background(), Path("/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "request:c request:b request:a response:a response:b response:c"
	if got := strings.Join(events, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestIntercept_PrecanceledAtAnyDepth(t *testing.T) {
	for depth := 1; depth <= 3; depth++ {
		root := &stubClient{}
		var client Client = root
		for i := 0; i < depth; i++ {
			client = client.Wrap(identity.With(nil))
		}

		req := Path("/")
		req.Cancel()

		resp, err := client.Do(context.Background(), req)
		if !errors.Is(err, ErrPrecanceled) {
			t.Errorf("depth %d: expected ErrPrecanceled, got %v", depth, err)
		}
		if resp == nil || resp.Request != req || resp.Error != err {
			t.Errorf("depth %d: expected normalized failure, got %+v", depth, resp)
		}
		if root.Calls() != 0 {
			t.Errorf("depth %d: expected root not to be called, got %d calls", depth, root.Calls())
		}
	}
}

func TestIntercept_ResponseRejectTurnsSuccessIntoFailure(t *testing.T) {
	rejected := errors.New("rejected")
	successCalled := false

	client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			return resp, rejected
		},
		Success: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			successCalled = true
			return resp, nil
		},
	}).With(nil))

	req := Path("/")
	resp, err := client.Do(context.Background(), req)
	if !errors.Is(err, rejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if resp.Error != err || resp.Request != req {
		t.Errorf("expected failure to carry error and request, got %+v", resp)
	}
	if successCalled {
		t.Error("expected success handler to be skipped")
	}
}

func TestIntercept_ResponseThenSuccess(t *testing.T) {
	var events []string
	client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "response")
			return resp, nil
		},
		Success: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "success")
			return &Response{Entity: "replaced"}, nil
		},
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "error")
			return resp, nil
		},
	}).With(nil))

	req := Path("/")
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(events, ","); got != "response,success" {
		t.Errorf("expected response,success, got %s", got)
	}
	if resp.Entity != "replaced" || resp.Request != req {
		t.Errorf("expected replaced response bound to the request, got %+v", resp)
	}
}

func TestIntercept_FailureKeepsFailingAfterResponse(t *testing.T) {
	boom := errors.New("boom")
	root := &stubClient{handle: func(context.Context, *Request) (*Response, error) {
		return &Response{Status: Status{Code: 500}}, boom
	}}
	client := root.Wrap(Intercept(Handlers[none, none]{
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			return &Response{Entity: "patched"}, nil
		},
	}).With(nil))

	resp, err := client.Do(context.Background(), Path("/"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if resp.Entity != "patched" {
		t.Errorf("expected response handler result to be kept, got %v", resp.Entity)
	}
}

func TestIntercept_ErrorRecovers(t *testing.T) {
	root := &stubClient{handle: func(context.Context, *Request) (*Response, error) {
		return nil, errors.New("boom")
	}}
	client := root.Wrap(Intercept(Handlers[none, none]{
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			resp.Entity = "recovered"
			return resp, nil
		},
	}).With(nil))

	resp, err := client.Do(context.Background(), Path("/"))
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if resp.Error != nil || resp.Entity != "recovered" {
		t.Errorf("expected recovered response, got %+v", resp)
	}
}

func TestIntercept_ErrorCanReplaceFailure(t *testing.T) {
	translated := errors.New("translated")
	root := &stubClient{handle: func(context.Context, *Request) (*Response, error) {
		return nil, errors.New("boom")
	}}
	client := root.Wrap(Intercept(Handlers[none, none]{
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			return resp, translated
		},
	}).With(nil))

	resp, err := client.Do(context.Background(), Path("/"))
	if err != translated || resp.Error != translated {
		t.Errorf("expected translated failure, got %v", err)
	}
}

func TestIntercept_RequestFailureSkipsOwnResponseHandlers(t *testing.T) {
	denied := errors.New("denied")
	var events []string
	root := &stubClient{}

	inner := Intercept(Handlers[none, none]{
		Request: func(context.Context, *Request, *none, *Meta[none]) (Dispatch, error) {
			return nil, denied
		},
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "inner-response")
			return resp, nil
		},
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "inner-error")
			return resp, nil
		},
	}).With(nil)
	outer := Intercept(Handlers[none, none]{
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			events = append(events, "outer-error")
			return resp, resp.Error
		},
	}).With(nil)

	req := Path("/")
	resp, err := root.Wrap(inner).Wrap(outer).Do(context.Background(), req)
	if !errors.Is(err, denied) {
		t.Fatalf("expected denied, got %v", err)
	}
	if resp.Request != req {
		t.Error("expected failure to reference the request")
	}
	if got := strings.Join(events, ","); got != "outer-error" {
		t.Errorf("expected only the outer error handler, got %s", got)
	}
	if root.Calls() != 0 {
		t.Error("expected no dispatch")
	}
}

func TestIntercept_UseClient(t *testing.T) {
	root := &stubClient{}
	alternate := &stubClient{handle: func(context.Context, *Request) (*Response, error) {
		return &Response{Entity: "alternate"}, nil
	}}
	client := root.Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			return UseClient{Request: req, Client: alternate}, nil
		},
	}).With(nil))

	resp, err := client.Do(context.Background(), Path("/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Entity != "alternate" || root.Calls() != 0 || alternate.Calls() != 1 {
		t.Errorf("expected only the alternate client to be called, got %v", resp.Entity)
	}
}

func TestIntercept_UseResponseRunsResponsePhase(t *testing.T) {
	root := &stubClient{}
	successCalled := false
	client := root.Wrap(Intercept(Handlers[none, none]{
		Request: func(context.Context, *Request, *none, *Meta[none]) (Dispatch, error) {
			return UseResponse{Response: &Response{Status: Status{Code: 200}, Entity: "cached"}}, nil
		},
		Success: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			successCalled = true
			return resp, nil
		},
	}).With(nil))

	req := Path("/")
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Entity != "cached" || resp.Request != req {
		t.Errorf("expected the precomputed response bound to the request, got %+v", resp)
	}
	if root.Calls() != 0 {
		t.Error("expected dispatch to be skipped")
	}
	if !successCalled {
		t.Error("expected success handler to run")
	}
}

func TestIntercept_AbortAlreadySignaled(t *testing.T) {
	stop := errors.New("stop")
	root := &stubClient{}
	responseCalled := false

	client := root.Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			signal := make(chan error, 1)
			signal <- stop
			return Abort{Request: req, Signal: signal}, nil
		},
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			responseCalled = true
			return resp, nil
		},
	}).With(nil))

	req := Path("/")
	resp, err := client.Do(context.Background(), req)
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop, got %v", err)
	}
	if resp.Request != req || req.Originator != client {
		t.Error("expected failure bound to the request and its originator")
	}
	if root.Calls() != 0 || responseCalled {
		t.Error("expected no dispatch and no response handler")
	}
}

func TestIntercept_AbortClosedSignal(t *testing.T) {
	client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			signal := make(chan error)
			close(signal)
			return Abort{Signal: signal}, nil
		},
	}).With(nil))

	if _, err := client.Do(context.Background(), Path("/")); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}
}

func TestIntercept_AbortRacesDispatch(t *testing.T) {
	stop := errors.New("stop")
	release := make(chan struct{})
	defer close(release)

	root := &stubClient{handle: func(context.Context, *Request) (*Response, error) {
		<-release
		return &Response{}, nil
	}}
	errorCalled := false
	client := root.Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			signal := make(chan error, 1)
			time.AfterFunc(10*time.Millisecond, func() { signal <- stop })
			return Abort{Request: req, Signal: signal}, nil
		},
		Error: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			errorCalled = true
			return resp, nil
		},
	}).With(nil))

	_, err := client.Do(context.Background(), Path("/"))
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop, got %v", err)
	}
	if errorCalled {
		t.Error("expected error handler to be bypassed")
	}
}

func TestIntercept_AbortLosingRace(t *testing.T) {
	client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			return Abort{Request: req, Signal: make(chan error)}, nil
		},
	}).With(nil))

	if _, err := client.Do(context.Background(), Path("/")); err != nil {
		t.Errorf("expected dispatch to win, got %v", err)
	}
}

func TestIntercept_AbortStop(t *testing.T) {
	stop := errors.New("stop")
	tests := []struct {
		name    string
		stopped bool
		wantErr error
	}{
		{name: "stopped in time", stopped: true},
		{name: "signal on its way", stopped: false, wantErr: stop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stopCalled := false
			client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
				Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
					signal := make(chan error, 1)
					return Abort{Request: req, Signal: signal, Stop: func() bool {
						stopCalled = true
						if !tt.stopped {
							go func() {
								time.Sleep(10 * time.Millisecond)
								signal <- stop
							}()
						}
						return tt.stopped
					}}, nil
				},
			}).With(nil))

			req := Path("/")
			resp, err := client.Do(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !stopCalled {
				t.Error("expected Stop to be called once dispatch settled")
			}
			if resp.Request != req {
				t.Errorf("expected the outcome bound to the request, got %+v", resp)
			}
		})
	}
}

func TestIntercept_HandlerPanicBecomesFailure(t *testing.T) {
	client := (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Success: func(context.Context, *Response, *none, *Meta[none]) (*Response, error) {
			panic("kaboom")
		},
	}).With(nil))

	resp, err := client.Do(context.Background(), Path("/"))
	if !errors.Is(err, ErrHandlerPanic) {
		t.Fatalf("expected ErrHandlerPanic, got %v", err)
	}
	if resp.Error != err {
		t.Error("expected panic failure on the response")
	}
}

type counterState struct{ n int }

func TestIntercept_StateIsPerInvocation(t *testing.T) {
	client := (&stubClient{}).Wrap(Intercept(Handlers[none, counterState]{
		Request: func(_ context.Context, req *Request, _ *none, meta *Meta[counterState]) (Dispatch, error) {
			meta.State.n++
			return req, nil
		},
		Response: func(_ context.Context, resp *Response, _ *none, meta *Meta[counterState]) (*Response, error) {
			meta.State.n++
			resp.Entity = meta.State.n
			return resp, nil
		},
	}).With(nil))

	for i := 0; i < 3; i++ {
		resp, err := client.Do(context.Background(), Path("/"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Entity != 2 {
			t.Errorf("expected fresh state on invocation %d, got %v", i, resp.Entity)
		}
	}
}

func TestIntercept_MetaClientIsSelf(t *testing.T) {
	var seen Client
	var client Client
	client = (&stubClient{}).Wrap(Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, meta *Meta[none]) (Dispatch, error) {
			seen = meta.Client
			return req, nil
		},
	}).With(nil))

	if _, err := client.Do(context.Background(), Path("/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != client {
		t.Error("expected meta.Client to be the intercepted client")
	}
}

type prefixConfig struct {
	Prefix string `validate:"required"`
	inits  int
}

func TestIntercept_InitRunsOnceAndMutatesConfig(t *testing.T) {
	factory := Intercept(Handlers[prefixConfig, none]{
		Init: func(c *prefixConfig) {
			c.inits++
			c.Prefix = strings.TrimSuffix(c.Prefix, "/")
		},
		Request: func(_ context.Context, req *Request, c *prefixConfig, _ *Meta[none]) (Dispatch, error) {
			req.Path = c.Prefix + req.Path
			return req, nil
		},
	})

	config := &prefixConfig{Prefix: "/api/"}
	root := &stubClient{handle: func(_ context.Context, req *Request) (*Response, error) {
		return &Response{Entity: req.Path}, nil
	}}
	client := factory(root, config)

	for i := 0; i < 2; i++ {
		resp, err := client.Do(context.Background(), Path("/users"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Entity != "/api/users" {
			t.Errorf("expected /api/users, got %v", resp.Entity)
		}
	}
	if config.inits != 1 {
		t.Errorf("expected Init to run once, got %d", config.inits)
	}
	if config.Prefix != "/api" {
		t.Errorf("expected Init to mutate the config, got %q", config.Prefix)
	}
}

func TestIntercept_InvalidConfigPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if !strings.Contains(r.(string), "Prefix") {
			t.Errorf("expected panic to name the invalid field, got %v", r)
		}
	}()

	Intercept(Handlers[prefixConfig, none]{})(&stubClient{}, &prefixConfig{})
}

func TestIntercept_NilParentUsesDefault(t *testing.T) {
	root := &stubClient{}
	Defaults.Set(root)
	defer Defaults.Reset()

	client := identity(nil, nil)
	if _, err := client.Do(context.Background(), Path("/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Calls() != 1 {
		t.Errorf("expected default client to be called once, got %d", root.Calls())
	}
	if client.Skip() != Default {
		t.Error("expected Skip to return the default client proxy")
	}

	// The default is resolved on every invocation.
	other := &stubClient{}
	Defaults.Set(other)
	if _, err := client.Do(context.Background(), Path("/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Calls() != 1 || root.Calls() != 1 {
		t.Error("expected the new default to serve the second invocation")
	}
}

func TestClientFunc(t *testing.T) {
	f := ClientFunc(func(_ context.Context, req *Request) (*Response, error) {
		return nil, errors.New("down")
	})

	resp, err := f.Do(context.Background(), nil)
	if err == nil || resp == nil || resp.Request == nil || resp.Error != err {
		t.Errorf("expected normalized failure, got %+v, %v", resp, err)
	}
	if f.Skip() != nil {
		t.Error("expected root client to have no parent")
	}
}
