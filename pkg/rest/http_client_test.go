package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Query", r.URL.RawQuery)
		w.Header().Set("X-Agent", r.UserAgent())
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		_, _ = io.WriteString(w, "hello world")
	})
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	})
	r.Delete("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Get(t *testing.T) {
	srv := newTestServer(t)
	client := NewHTTPClient()

	req := &Request{
		Path:    srv.URL + "/hello",
		Params:  map[string]any{"q": "a b"},
		Headers: http.Header{"X-Custom": {"yes"}},
	}
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Request != req {
		t.Error("expected response to reference the request")
	}
	if resp.Status.Code != 200 || resp.Status.Text != "OK" {
		t.Errorf("expected 200 OK, got %+v", resp.Status)
	}
	if resp.Entity != "hello world" {
		t.Errorf("expected body as entity, got %v", resp.Entity)
	}
	if got := resp.Header("x-query"); got != "q=a%20b" {
		t.Errorf("expected params as query, got %q", got)
	}
	if got := resp.Header("X-Agent"); !strings.HasPrefix(got, "go-rest/") {
		t.Errorf("expected default user agent, got %q", got)
	}
	if got := resp.Header("X-Custom"); got != "yes" {
		t.Errorf("expected request headers to be sent, got %q", got)
	}
	raw, ok := resp.Raw.(HTTPRaw)
	if !ok || raw.Request == nil || raw.Response == nil {
		t.Errorf("expected raw HTTP exchange, got %#v", resp.Raw)
	}
}

func TestHTTPClient_PostByDefaultWithEntity(t *testing.T) {
	srv := newTestServer(t)

	resp, err := NewHTTPClient().Do(context.Background(), &Request{Path: srv.URL + "/echo", Entity: "ping"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status.Code != 201 || resp.Entity != "ping" {
		t.Errorf("expected echoed entity, got %d %v", resp.Status.Code, resp.Entity)
	}
}

func TestHTTPClient_EntityKinds(t *testing.T) {
	srv := newTestServer(t)
	client := NewHTTPClient()

	for _, entity := range []any{[]byte("ping"), strings.NewReader("ping"), io.MultiReader(strings.NewReader("pi"), strings.NewReader("ng"))} {
		resp, err := client.Do(context.Background(), &Request{Method: "POST", Path: srv.URL + "/echo", Entity: entity})
		if err != nil {
			t.Fatalf("%T: unexpected error: %v", entity, err)
		}
		if resp.Entity != "ping" {
			t.Errorf("%T: expected ping, got %v", entity, resp.Entity)
		}
	}
}

func TestHTTPClient_EmptyBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := NewHTTPClient().Do(context.Background(), &Request{Method: "DELETE", Path: srv.URL + "/empty"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status.Code != 204 || resp.Entity != nil {
		t.Errorf("expected 204 without entity, got %d %v", resp.Status.Code, resp.Entity)
	}
}

func TestHTTPClient_Precanceled(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer srv.Close()

	req := Path(srv.URL)
	req.Cancel()

	_, err := NewHTTPClient().Do(context.Background(), req)
	if !errors.Is(err, ErrPrecanceled) {
		t.Errorf("expected ErrPrecanceled, got %v", err)
	}
	if hits != 0 {
		t.Error("expected no request to reach the server")
	}
}

func TestHTTPClient_CanceledInFlight(t *testing.T) {
	srv := newTestServer(t)

	req := Path(srv.URL + "/slow")
	time.AfterFunc(20*time.Millisecond, req.Cancel)

	resp, err := NewHTTPClient().Do(context.Background(), req)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if !req.Canceled() || resp.Request != req {
		t.Error("expected canceled request on the failure")
	}
}

func TestHTTPClient_CanceledAsExchangeEnds(t *testing.T) {
	req := Path("http://things/")
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		req.Cancel()
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("body")),
			Request:    r,
		}, nil
	})}

	resp, err := NewHTTPClient(WithHTTPClient(hc)).Do(context.Background(), req)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if resp.Error != err || resp.Request != req {
		t.Errorf("expected the failure bound to the request, got %+v", resp)
	}
}

func TestHTTPClient_ContextDeadline(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := NewHTTPClient().Do(ctx, Path(srv.URL+"/slow")); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestHTTPClient_LoadError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewHTTPClient().Do(context.Background(), Path(url)); !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}
}

func TestHTTPClient_UnsupportedEntity(t *testing.T) {
	_, err := NewHTTPClient().Do(context.Background(), &Request{Path: "http://localhost/", Entity: map[string]any{"a": 1}})
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}
}

func TestHTTPClient_WithHTTPClient(t *testing.T) {
	called := false
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{
			StatusCode: 418,
			Status:     "418 I'm a teapot",
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("short and stout")),
			Request:    r,
		}, nil
	})}

	resp, err := NewHTTPClient(WithHTTPClient(hc)).Do(context.Background(), Path("http://teapot/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || resp.Status.Code != 418 || resp.Status.Text != "I'm a teapot" {
		t.Errorf("expected the given client to be used, got %+v", resp.Status)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
