// Package app bootstraps the ambient dependencies of programs built on
// go-rest: a leveled logger, a telemetry client and OpenTelemetry pipelines.
package app

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/otel"
	"github.com/luizaranda/go-rest/pkg/telemetry"
)

const (
	_defaultScopeEnvironment = "local"

	_otelAgentEnabledEnv  = "OTEL_AGENT_ENABLED"
	_otelAgentDisabledEnv = "OTEL_AGENT_DISABLED"
)

// Application holds the dependencies shared by the clients of a program.
type Application struct {
	Scope  Scope
	Logger log.Logger
	Tracer telemetry.Client

	// Level changes the level of Logger at runtime.
	Level *log.AtomicLevel

	otelShutdown otel.ShutdownFunc
}

// NewApplication builds an Application. Sane defaults are provided.
//
// Telemetry is discarded in the local scope.
func NewApplication(opts ...AppOptFunc) (*Application, error) {
	var config Config
	for _, opt := range opts {
		opt(&config)
	}
	if config.Scope == "" {
		config.Scope = scopeFromEnv()
	}

	scope, err := ParseScope(config.Scope)
	if err != nil {
		return nil, err
	}

	// OTel goes first, as clients built afterwards read the global providers.
	otelShutdown := func(context.Context) error { return nil }
	if config.EnableOTel || isOpenTelemetryEnabled() {
		if otelShutdown, err = otel.Start(context.Background(), config.OTelOptions...); err != nil {
			return nil, err
		}
	}

	tracer, err := newTracer(scope, config.Telemetry)
	if err != nil {
		return nil, errors.Join(err, otelShutdown(context.Background()))
	}

	level := log.NewAtomicLevelAt(config.LogLevel)

	return &Application{
		Scope:        scope,
		Logger:       log.NewProductionLogger(&level, config.LogOptions...),
		Tracer:       tracer,
		Level:        &level,
		otelShutdown: otelShutdown,
	}, nil
}

// Context returns a context carrying the logger and telemetry client of the
// application, where interceptors and transports look for them.
func (a *Application) Context(ctx context.Context) context.Context {
	return telemetry.Context(log.Context(ctx, a.Logger), a.Tracer)
}

// Shutdown flushes logs, metrics and spans.
func (a *Application) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.otelShutdown(ctx),
		a.Tracer.Close(),
		ignoreSyncErr(a.Logger.Sync()),
	)
}

// Syncing stderr fails on some platforms with errors that can be ignored.
func ignoreSyncErr(err error) error {
	if err != nil && (strings.Contains(err.Error(), "invalid argument") || strings.Contains(err.Error(), "inappropriate ioctl")) {
		return nil
	}
	return err
}

func scopeFromEnv() string {
	scope := os.Getenv("SCOPE")
	if scope == "" {
		scope = _defaultScopeEnvironment
	}
	return scope
}

func newTracer(scope Scope, cfg *telemetry.Config) (telemetry.Client, error) {
	if scope.IsLocal() {
		return telemetry.NewNoOpClient(), nil
	}
	if cfg == nil {
		c := telemetryConfigFromEnv()
		cfg = &c
	}
	return telemetry.NewClient(*cfg)
}

func telemetryConfigFromEnv() telemetry.Config {
	addr := os.Getenv("DD_AGENT_ADDR")
	if addr == "" {
		addr = "datadog:8125"
	}
	return telemetry.Config{
		ApplicationName: os.Getenv("NEW_RELIC_APP_NAME"),
		NewRelicLicense: os.Getenv("NEW_RELIC_LICENSE_KEY"),
		DatadogAddress:  addr,
	}
}

func isOpenTelemetryEnabled() bool {
	return strings.EqualFold(os.Getenv(_otelAgentEnabledEnv), "true") &&
		!strings.EqualFold(os.Getenv(_otelAgentDisabledEnv), "true")
}
