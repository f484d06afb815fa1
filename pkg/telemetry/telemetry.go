package telemetry

import (
	"context"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/newrelic/go-agent/v3/newrelic"
)

var (
	_defaultBufferLen = 500
	_defaultTimeout   = 200 * time.Millisecond
	_defaultRate      = 1.0
	_shutdownTimeout  = 5 * time.Second
)

// DefaultTracer is used by the functions of this package when the context
// carries no Client. It discards everything.
var DefaultTracer = NewNoOpClient()

type client struct {
	nrApp  *newrelic.Application
	statsd statsd.ClientInterface
}

var _ Client = (*client)(nil)

// Config contains attributes required by NewClient to bootstrap itself.
type Config struct {
	// ApplicationName is the name that will be shown on NewRelic.
	ApplicationName string

	// NewRelicLicense identifies the NewRelic account. An empty license
	// disables NewRelic.
	NewRelicLicense string

	// DatadogAddress is the address of the statsd agent, for instance
	// "127.0.0.1:8125" or "unix:///var/run/datadog/dsd.socket".
	DatadogAddress string

	// Namespace is prepended to every metric name.
	Namespace string
}

// NewClient returns a client connected to NewRelic and statsd.
func NewClient(cfg Config) (Client, error) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigEnabled(cfg.NewRelicLicense != ""),
		newrelic.ConfigLicense(cfg.NewRelicLicense),
		newrelic.ConfigAppName(cfg.ApplicationName),
		newrelic.ConfigDistributedTracerEnabled(false),
		newrelic.ConfigFromEnvironment(),
	)
	if err != nil {
		return nil, err
	}

	opts := []statsd.Option{
		statsd.WithMaxMessagesPerPayload(_defaultBufferLen),
		statsd.WithWriteTimeout(_defaultTimeout),
	}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}

	s, err := statsd.New(cfg.DatadogAddress, opts...)
	if err != nil {
		return nil, err
	}

	return &client{nrApp: app, statsd: s}, nil
}

// NewNoOpClient returns a client that does nothing.
func NewNoOpClient() Client {
	return NewStatsdClient(&statsd.NoOpClient{})
}

// NewStatsdClient returns a client that sends metrics to s and has NewRelic
// disabled. It lets tests observe metrics through a statsd.ClientInterface.
func NewStatsdClient(s statsd.ClientInterface) Client {
	app, _ := newrelic.NewApplication(newrelic.ConfigEnabled(false))
	return &client{nrApp: app, statsd: s}
}

// Close flushes buffered metrics and shuts NewRelic down.
func (c *client) Close() error {
	if c.nrApp != nil {
		c.nrApp.Shutdown(_shutdownTimeout)
	}
	return c.statsd.Close()
}

func (c *client) StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	if tx := newrelic.FromContext(ctx); tx != nil {
		segment := tx.StartSegment(name)
		return ctx, segment.End
	}

	tx := c.nrApp.StartTransaction(name)
	return Context(newrelic.NewContext(ctx, tx), c), tx.End
}

func (c *client) Incr(name string, tags []string) {
	_ = c.statsd.Incr(name, tags, _defaultRate)
}

// Timing sends a duration in milliseconds.
func (c *client) Timing(name string, value time.Duration, tags []string) {
	_ = c.statsd.Timing(name, value, tags, _defaultRate)
}
