package httpclient

import (
	"errors"
	"net/http"
	"time"

	"github.com/luizaranda/go-rest/pkg/transport"
)

var _defaultTransport = transport.NewPooled("rest-default")

// DefaultTransport returns the transport used by New when none is given.
func DefaultTransport() *transport.PooledTransport {
	return _defaultTransport
}

// CheckRedirectFunc is the signature of http.Client.CheckRedirect.
type CheckRedirectFunc func(req *http.Request, via []*http.Request) error

// NoRedirect makes the client return redirect responses as they are.
func NoRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

// MaxRedirects follows up to n redirects before failing.
func MaxRedirects(n int) CheckRedirectFunc {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= n {
			return errors.New("httpclient: stopped after too many redirects")
		}
		return nil
	}
}

var (
	// DefaultTimeout bounds every request made by clients built with New.
	DefaultTimeout = 30 * time.Second

	// DefaultCheckRedirect does not follow redirects.
	DefaultCheckRedirect = CheckRedirectFunc(NoRedirect)
)

type clientOptions struct {
	Timeout        time.Duration
	CheckRedirect  CheckRedirectFunc
	Transport      *transport.PooledTransport
	TargetID       string
	ReqHooks       []transport.RequestHook
	ResHooks       []transport.ResponseHook
	CircuitBreaker transport.CircuitBreaker
}

// Option configures New.
type Option interface {
	applyClient(opts *clientOptions)
}

type optFunc func(opts *clientOptions)

func (f optFunc) applyClient(o *clientOptions) { f(o) }

// WithTransport sets the base transport. An *http.Transport can be turned
// into a PooledTransport with transport.NewPooledFromTransport.
func WithTransport(t *transport.PooledTransport) Option {
	return optFunc(func(o *clientOptions) {
		o.Transport = t
	})
}

// WithTimeout bounds each request. Zero disables the bound, negative values
// are ignored.
func WithTimeout(t time.Duration) Option {
	return optFunc(func(o *clientOptions) {
		if t >= 0 {
			o.Timeout = t
		}
	})
}

// DisableTimeout is WithTimeout(0).
func DisableTimeout() Option { return WithTimeout(0) }

// FollowRedirects makes the client follow up to 10 redirects on its own.
// By default redirect responses are returned to the caller.
func FollowRedirects(follow bool) Option {
	return optFunc(func(o *clientOptions) {
		if follow {
			o.CheckRedirect = MaxRedirects(10)
		} else {
			o.CheckRedirect = NoRedirect
		}
	})
}

// WithTargetID tags every request whose context has no target with targetID.
func WithTargetID(targetID string) Option {
	return optFunc(func(o *clientOptions) {
		o.TargetID = targetID
	})
}

// WithRequestHook adds hooks run before every request.
func WithRequestHook(hooks ...transport.RequestHook) Option {
	return optFunc(func(o *clientOptions) {
		o.ReqHooks = append(o.ReqHooks, hooks...)
	})
}

// WithResponseHook adds hooks run after every response.
func WithResponseHook(hooks ...transport.ResponseHook) Option {
	return optFunc(func(o *clientOptions) {
		o.ResHooks = append(o.ResHooks, hooks...)
	})
}

// WithCircuitBreaker puts cb in front of every request. Requests are bucketed
// by target id, then endpoint template, then host.
func WithCircuitBreaker(cb transport.CircuitBreaker) Option {
	return optFunc(func(o *clientOptions) {
		o.CircuitBreaker = cb
	})
}

// New builds a *http.Client whose transport records telemetry on every
// request.
func New(opts ...Option) *http.Client {
	config := clientOptions{
		Timeout:       DefaultTimeout,
		CheckRedirect: DefaultCheckRedirect,
		Transport:     DefaultTransport(),
	}

	for _, opt := range opts {
		opt.applyClient(&config)
	}

	return &http.Client{
		Timeout:       config.Timeout,
		CheckRedirect: config.CheckRedirect,
		Transport:     roundTripper(&config),
	}
}

func roundTripper(config *clientOptions) http.RoundTripper {
	chain := transport.RoundTripChain{transport.UserAgentDecorator()}

	if config.TargetID != "" {
		chain = append(chain, transport.TargetDecorator(config.TargetID))
	}

	if len(config.ReqHooks) > 0 || len(config.ResHooks) > 0 {
		chain = append(chain, transport.HookDecorator(config.ReqHooks, config.ResHooks))
	}

	chain = append(chain, transport.TraceDecorator())

	if config.CircuitBreaker != nil {
		chain = append(chain, transport.CircuitBreakerDecorator(
			config.CircuitBreaker,
			transport.DefaultCircuitBreakerCheckFunc(),
			transport.DefaultCircuitBreakerBucketFunc(),
		))
	}

	// Innermost, so the span covers only the wire exchange.
	chain = append(chain, transport.OpenTelemetryDecorator())

	return chain.Apply(config.Transport)
}
