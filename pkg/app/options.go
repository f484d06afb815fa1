package app

import (
	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/otel"
	"github.com/luizaranda/go-rest/pkg/telemetry"
)

// Config holds the settings of NewApplication.
type Config struct {
	Scope      string
	LogLevel   log.Level
	LogOptions []log.Option

	// Telemetry replaces the configuration read from the environment.
	Telemetry *telemetry.Config

	EnableOTel  bool
	OTelOptions []otel.Option
}

// AppOptFunc configures NewApplication.
type AppOptFunc func(*Config)

// WithScope sets the scope instead of reading it from $SCOPE.
func WithScope(scope string) AppOptFunc {
	return func(config *Config) {
		config.Scope = scope
	}
}

// WithLogLevel sets the level the application logger starts at. Default is
// Info.
func WithLogLevel(level log.Level) AppOptFunc {
	return func(config *Config) {
		config.LogLevel = level
	}
}

// WithLogOptions sets the options of the application logger.
func WithLogOptions(opts ...log.Option) AppOptFunc {
	return func(config *Config) {
		config.LogOptions = opts
	}
}

// WithTelemetryConfig sets the NewRelic and statsd configuration. It is only
// used outside the local scope, where telemetry is discarded.
func WithTelemetryConfig(cfg telemetry.Config) AppOptFunc {
	return func(config *Config) {
		config.Telemetry = &cfg
	}
}

// WithOpenTelemetry starts OTLP trace and metric pipelines. They are also
// started when $OTEL_AGENT_ENABLED is true, unless $OTEL_AGENT_DISABLED is.
func WithOpenTelemetry(opts ...otel.Option) AppOptFunc {
	return func(config *Config) {
		config.EnableOTel = true
		config.OTelOptions = opts
	}
}
