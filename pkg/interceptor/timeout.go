package interceptor

import (
	"context"
	"strconv"
	"time"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// TimeoutConfig configures the Timeout interceptor.
type TimeoutConfig struct {
	// Timeout bounds the time to a response. Zero disables the bound.
	Timeout time.Duration `validate:"gte=0"`

	// Transient leaves timed out requests not canceled, so that they can be
	// issued again, for instance by Retry.
	Transient bool
}

type timeoutState struct {
	timer *time.Timer
}

// Timeout fails requests with rest.ErrTimeout when no response arrives in
// time. The timed out request is canceled, which aborts its transfer. A
// response arriving as the timer fires still fails with rest.ErrTimeout. The
// AttrTimeout and AttrTransient request attributes take precedence over the
// configuration.
var Timeout = rest.Intercept(rest.Handlers[TimeoutConfig, timeoutState]{
	Request: func(_ context.Context, req *rest.Request, config *TimeoutConfig, meta *rest.Meta[timeoutState]) (rest.Dispatch, error) {
		timeout := durationAttr(req, AttrTimeout, config.Timeout)
		if timeout <= 0 {
			return req, nil
		}
		transient := boolAttr(req, AttrTransient, config.Transient)

		signal := make(chan error, 1)
		meta.State.timer = time.AfterFunc(timeout, func() {
			if transient {
				signal <- rest.ErrTimeout
				req.Interrupt()
				return
			}
			req.SetCanceled(true)
			signal <- rest.ErrTimeout
			req.Cancel()
		})
		return rest.Abort{Request: req, Signal: signal, Stop: meta.State.timer.Stop}, nil
	},
	Response: func(_ context.Context, resp *rest.Response, _ *TimeoutConfig, meta *rest.Meta[timeoutState]) (*rest.Response, error) {
		if meta.State.timer != nil {
			meta.State.timer.Stop()
		}
		return resp, nil
	},
})

func durationAttr(req *rest.Request, key string, fallback time.Duration) time.Duration {
	v, ok := req.Attr(key)
	if !ok {
		return fallback
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Millisecond
	case int64:
		return time.Duration(d) * time.Millisecond
	case float64:
		return time.Duration(d * float64(time.Millisecond))
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolAttr(req *rest.Request, key string, fallback bool) bool {
	v, ok := req.Attr(key)
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return fallback
}
