package interceptor

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/rest"
	"github.com/luizaranda/go-rest/pkg/telemetry"
	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
)

// RetryHeader carries the attempt number of retried requests.
const RetryHeader = "X-Retry"

// RetryIfFunc reports whether a failed invocation should be retried.
type RetryIfFunc func(resp *rest.Response, err error) bool

// DefaultRetryIf retries every failure except cancellations and client
// errors.
func DefaultRetryIf(resp *rest.Response, err error) bool {
	if errors.Is(err, rest.ErrPrecanceled) || errors.Is(err, rest.ErrCanceled) {
		return false
	}
	var statusErr *rest.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status.Code >= http.StatusInternalServerError
	}
	return true
}

// RetryConfig configures the Retry interceptor.
type RetryConfig struct {
	// Initial is the delay before the first retry. Defaults to 100ms.
	Initial time.Duration `validate:"gte=0"`

	// Multiplier grows the delay after each retry. Defaults to 2.
	Multiplier float64 `validate:"gte=0"`

	// Max caps the delay. Zero leaves it unbounded.
	Max time.Duration `validate:"gte=0"`

	// MaxAttempts bounds the number of attempts, the first one included.
	// Zero retries until success.
	MaxAttempts int `validate:"gte=0"`

	// AttemptTimeout bounds each attempt. A timed out attempt is aborted
	// without canceling the request and retried. Zero awaits every attempt.
	AttemptTimeout time.Duration `validate:"gte=0"`

	// RetryIf decides which failures are retried. Defaults to DefaultRetryIf.
	RetryIf RetryIfFunc
}

// Retry reissues failed requests with exponential backoff. Retried requests
// carry the RetryHeader and are counted by the
// toolkit.http.client.request.retry.count metric. A request canceled while
// waiting fails with rest.ErrPrecanceled.
var Retry = rest.Intercept(rest.Handlers[RetryConfig, struct{}]{
	Init: func(config *RetryConfig) {
		if config.Initial == 0 {
			config.Initial = 100 * time.Millisecond
		}
		if config.Multiplier == 0 {
			config.Multiplier = 2
		}
		if config.RetryIf == nil {
			config.RetryIf = DefaultRetryIf
		}
	},
	Request: func(_ context.Context, req *rest.Request, config *RetryConfig, meta *rest.Meta[struct{}]) (rest.Dispatch, error) {
		if config.AttemptTimeout <= 0 {
			return req, nil
		}
		return rest.UseClient{Request: req, Client: attemptClient(meta.Client.Skip(), config)}, nil
	},
	Error: func(ctx context.Context, resp *rest.Response, config *RetryConfig, meta *rest.Meta[struct{}]) (*rest.Response, error) {
		req, err := resp.Request, resp.Error
		client := attemptClient(meta.Client.Skip(), config)

		delay := config.Initial
		for attempt := 1; config.RetryIf(resp, err); attempt++ {
			if config.MaxAttempts > 0 && attempt >= config.MaxAttempts {
				break
			}
			log.Debug(ctx, "retrying request",
				log.Int("attempt", attempt),
				log.Duration("delay", delay),
				log.Err(err))
			if werr := sleep(ctx, delay); werr != nil {
				return resp, werr
			}
			if req.Canceled() {
				return &rest.Response{Request: req}, rest.ErrPrecanceled
			}

			req.SetHeader(RetryHeader, strconv.Itoa(attempt))
			resp, err = client.Do(ctx, req)
			recordRetry(ctx, req, resp, err)
			if err == nil {
				return resp, nil
			}
			delay = nextDelay(delay, config)
		}
		return resp, err
	},
})

func nextDelay(delay time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(math.Min(float64(delay)*config.Multiplier, math.MaxInt64))
	if config.Max > 0 && next > config.Max {
		return config.Max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recordRetry(ctx context.Context, req *rest.Request, resp *rest.Response, err error) {
	code := 0
	if resp != nil && !errors.Is(err, rest.ErrTimeout) && !errors.Is(err, rest.ErrLoad) {
		code = resp.Status.Code
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	tags := append([]string{
		"technology:go",
		"target_id:" + telemetry.SanitizeMetricTagValue(targetID(ctx, req)),
		"method:" + strings.ToLower(method),
	}, telemetry.StatusTags(code, errors.Is(err, rest.ErrTimeout))...)

	telemetry.Incr(ctx, "toolkit.http.client.request.retry.count", tags)
}

func targetID(ctx context.Context, req *rest.Request) string {
	if id := stringAttr(req, rest.AttrTargetID, ""); id != "" {
		return id
	}
	return tracing.TargetID(ctx)
}

// attemptClient bounds each call to parent by the attempt timeout of config.
func attemptClient(parent rest.Client, config *RetryConfig) rest.Client {
	if config.AttemptTimeout <= 0 {
		return parent
	}
	return &boundedClient{parent: parent, timeout: config.AttemptTimeout}
}

type boundedClient struct {
	parent  rest.Client
	timeout time.Duration
}

type outcome struct {
	resp *rest.Response
	err  error
}

func (c *boundedClient) Do(parent context.Context, req *rest.Request) (*rest.Response, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		resp, err := c.parent.Do(ctx, req)
		done <- outcome{resp, err}
	}()

	select {
	case o := <-done:
		return o.resp, o.err
	case <-ctx.Done():
		req.Interrupt()
		if err := parent.Err(); err != nil {
			return &rest.Response{Request: req}, err
		}
		return &rest.Response{Request: req}, rest.ErrTimeout
	}
}

func (c *boundedClient) Wrap(i rest.Interceptor) rest.Client { return i(c) }

func (c *boundedClient) Skip() rest.Client { return c.parent }
