// Command rest issues a request through a go-rest client and prints the
// response entity, following hypermedia relationships when asked to.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/luizaranda/go-rest/pkg/app"
	"github.com/luizaranda/go-rest/pkg/interceptor"
	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/mime"
	"github.com/luizaranda/go-rest/pkg/rest"
	"github.com/luizaranda/go-rest/pkg/telemetry"
	"github.com/luizaranda/go-rest/pkg/transport/httpclient"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "rest:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	application, err := app.NewApplication(
		app.WithLogLevel(level),
		app.WithLogOptions(log.WithConsoleEncoding(), log.WithCaller(false), log.WithStacktraceOnError(false)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if serr := application.Shutdown(context.Background()); err == nil {
			err = serr
		}
	}()
	ctx, end := telemetry.StartTransaction(application.Context(ctx), "rest")
	defer end()

	req, permissive, err := newRequest(ctx, cfg)
	if err != nil {
		return err
	}

	p := rest.Invoke(ctx, newClient(cfg, permissive), req)
	if len(cfg.Follow) > 0 {
		p = p.FollowRel(cfg.Follow...)
	}

	resp, err := p.Await(ctx)
	if resp != nil {
		if perr := printResponse(stdout, resp, cfg.Verbose); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// newClient assembles the interceptor chain, innermost first.
func newClient(cfg config, permissive bool) rest.Client {
	opts := []httpclient.Option{httpclient.FollowRedirects(cfg.Location)}
	if cfg.Target != "" {
		opts = append(opts, httpclient.WithTargetID(cfg.Target))
	}
	if cfg.Timeout > 0 {
		// The Timeout interceptor bounds the whole invocation instead.
		opts = append(opts, httpclient.DisableTimeout())
	}

	client := rest.NewHTTPClient(rest.WithClientOptions(opts...)).
		Wrap(interceptor.ErrorCode.With(nil)).
		Wrap(interceptor.Mime.With(&interceptor.MimeConfig{Mime: cfg.ContentType, Permissive: permissive})).
		Wrap(interceptor.Hateoas.With(nil))

	if cfg.Retries > 0 {
		client = client.Wrap(interceptor.Retry.With(&interceptor.RetryConfig{MaxAttempts: cfg.Retries + 1}))
	}
	if cfg.Timeout > 0 {
		client = client.Wrap(interceptor.Timeout.With(&interceptor.TimeoutConfig{Timeout: cfg.Timeout}))
	}

	return client.
		Wrap(interceptor.RequestID.With(nil)).
		Wrap(interceptor.Tracing.With(nil)).
		Wrap(interceptor.Logging.With(&interceptor.LoggingConfig{IncludeResponse: cfg.Verbose}))
}

// newRequest builds the request. Data is decoded with the converter of its
// content type so that the Mime interceptor encodes it back. Data of unknown
// types is sent as is, which the returned permissive flag allows.
func newRequest(ctx context.Context, cfg config) (*rest.Request, bool, error) {
	req := &rest.Request{Method: cfg.Method, Path: cfg.URL}

	for _, h := range cfg.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, false, fmt.Errorf("malformed header %q", h)
		}
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if cfg.Data == "" {
		return req, false, nil
	}
	req.SetHeader("Content-Type", cfg.ContentType)

	converter, err := mime.Default.Lookup(cfg.ContentType)
	if err != nil {
		req.Entity = cfg.Data
		return req, true, nil
	}

	entity, err := converter.Read(ctx, cfg.Data, mime.Options{
		MIME:     mime.Parse(cfg.ContentType),
		Registry: mime.Default,
	})
	if err != nil {
		return nil, false, fmt.Errorf("decoding data as %s: %w", cfg.ContentType, err)
	}
	req.Entity = entity
	return req, false, nil
}

func printResponse(w io.Writer, resp *rest.Response, verbose bool) error {
	fmt.Fprintf(w, "HTTP %d %s\n", resp.Status.Code, resp.Status.Text)
	if verbose {
		printHeaders(w, resp.Headers)
	}

	switch e := resp.Entity.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, e)
		return err
	case []byte:
		_, err := fmt.Fprintln(w, string(e))
		return err
	default:
		b, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

func printHeaders(w io.Writer, headers http.Header) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range headers[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(w)
}
