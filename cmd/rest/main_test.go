package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	var srv *httptest.Server
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", "<"+srv.URL+`/next>; rel="next"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"root"}`))
	})
	r.Get("/next", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("done"))
	})
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
		_, _ = io.Copy(w, r.Body)
	})
	r.Get("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/next", http.StatusFound)
	})
	r.HandleFunc("/method", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.Method + " " + r.Header.Get("X-Token")))
	})

	srv = httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCOPE", "")

	var out bytes.Buffer
	err := run(context.Background(), args, &out, io.Discard)
	return out.String(), err
}

func TestRun_Get(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, srv.URL+"/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(out, "HTTP 200 OK\n") {
		t.Errorf("expected a status line, got %q", out)
	}
	if !strings.Contains(out, `"name": "root"`) {
		t.Errorf("expected the decoded entity, got %q", out)
	}
}

func TestRun_Location(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, srv.URL+"/moved")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(out, "HTTP 302 Found\n") {
		t.Errorf("expected the redirect response, got %q", out)
	}

	out, err = runCLI(t, "-L", "--target", "things", srv.URL+"/moved")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "HTTP 200 OK\ndone\n" {
		t.Errorf("expected the redirect target, got %q", out)
	}
}

func TestRun_Follow(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, "--follow", "next", srv.URL+"/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "HTTP 200 OK\ndone\n" {
		t.Errorf("expected the followed entity, got %q", out)
	}
}

func TestRun_PostData(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, "-d", `{"a": 1}`, srv.URL+"/echo")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "{\n  \"a\": 1\n}") {
		t.Errorf("expected the echoed entity, got %q", out)
	}
}

func TestRun_PostUnknownContentType(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, "--content-type", "application/vnd.custom", "-d", "raw data", srv.URL+"/echo")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "HTTP 200 OK\nraw data\n" {
		t.Errorf("expected the raw entity, got %q", out)
	}
}

func TestRun_EnvironmentAndHeaders(t *testing.T) {
	srv := newServer(t)
	t.Setenv("REST_METHOD", "delete")

	out, err := runCLI(t, "-H", "X-Token: abc", srv.URL+"/method")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "DELETE abc") {
		t.Errorf("expected DELETE abc, got %q", out)
	}

	out, err = runCLI(t, "-X", "put", srv.URL+"/method")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "PUT") {
		t.Errorf("expected flags to win over the environment, got %q", out)
	}
}

func TestRun_EnvFile(t *testing.T) {
	srv := newServer(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("REST_METHOD=PATCH\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REST_METHOD", "")
	os.Unsetenv("REST_METHOD")

	out, err := runCLI(t, "--env-file", path, srv.URL+"/method")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "PATCH") {
		t.Errorf("expected PATCH, got %q", out)
	}
}

func TestRun_ErrorStatus(t *testing.T) {
	srv := newServer(t)

	out, err := runCLI(t, srv.URL+"/missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(out, "HTTP 404 Not Found\n") {
		t.Errorf("expected the failed response to be printed, got %q", out)
	}
}

func TestRun_Usage(t *testing.T) {
	if _, err := runCLI(t); !errors.Is(err, errUsage) {
		t.Errorf("expected errUsage, got %v", err)
	}
	if _, err := runCLI(t, "-H", "broken", "http://localhost"); err == nil {
		t.Error("expected a malformed header to fail")
	}
}
