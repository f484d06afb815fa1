// Package transport provides the http.RoundTripper stack the HTTP root client
// dispatches through: a tuned base transport that tracks its connection pool,
// and decorators adding hooks, user agent, circuit breaking and telemetry.
package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

var (
	// DefaultDialTimeout is the max time the dialer waits for the TCP
	// handshake.
	DefaultDialTimeout = 2 * time.Second

	// DefaultKeepAliveProbeInterval is the interval between keep-alive probes
	// of open connections.
	DefaultKeepAliveProbeInterval = 15 * time.Second
)

// RoundTripDecorator is a function that takes a RoundTripper and returns a
// decorated one.
type RoundTripDecorator func(http.RoundTripper) http.RoundTripper

// RoundTripChain is an ordered collection of RoundTripDecorator. The first
// decorator is the outermost one.
type RoundTripChain []RoundTripDecorator

// Apply wraps base with every decorator of the chain.
func (c RoundTripChain) Apply(base http.RoundTripper) http.RoundTripper {
	for x := len(c) - 1; x >= 0; x-- {
		base = c[x](base)
	}
	return base
}

// An Option configures a http.Transport or its dialer.
type Option interface {
	applyTransport(*http.Transport)
	applyDialer(*net.Dialer)
}

type transportOptFunc func(*http.Transport)

func (f transportOptFunc) applyTransport(t *http.Transport) { f(t) }
func (f transportOptFunc) applyDialer(*net.Dialer)          {}

type dialerOptFunc func(*net.Dialer)

func (f dialerOptFunc) applyTransport(*http.Transport) {}
func (f dialerOptFunc) applyDialer(d *net.Dialer)      { f(d) }

// OptionDialTimeout sets the timeout of the transport dialer.
func OptionDialTimeout(timeout time.Duration) Option {
	return dialerOptFunc(func(d *net.Dialer) {
		d.Timeout = timeout
	})
}

// OptionResponseHeaderTimeout sets the ResponseHeaderTimeout of the transport.
func OptionResponseHeaderTimeout(timeout time.Duration) Option {
	return transportOptFunc(func(t *http.Transport) {
		t.ResponseHeaderTimeout = timeout
	})
}

// OptionIdleConnTimeout sets the IdleConnTimeout of the transport.
func OptionIdleConnTimeout(timeout time.Duration) Option {
	return transportOptFunc(func(t *http.Transport) {
		t.IdleConnTimeout = timeout
	})
}

// OptionMaxIdleConnsPerHost sets the size of the idle pool kept per host.
func OptionMaxIdleConnsPerHost(n int) Option {
	return transportOptFunc(func(t *http.Transport) {
		t.MaxIdleConnsPerHost = n
	})
}

// OptionTLSClientConfig sets the TLSClientConfig of the transport.
func OptionTLSClientConfig(config *tls.Config) Option {
	return transportOptFunc(func(t *http.Transport) {
		t.TLSClientConfig = config
	})
}

// NewTransport returns an *http.Transport tuned for talking to a small set of
// hosts repeatedly.
func NewTransport(opts ...Option) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: DefaultKeepAliveProbeInterval,
	}

	t := &http.Transport{
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   100,
		Proxy:                 http.ProxyFromEnvironment,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	for _, opt := range opts {
		opt.applyDialer(dialer)
		opt.applyTransport(t)
	}
	t.DialContext = dialer.DialContext

	return t
}
