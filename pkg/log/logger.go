package log

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger carried in contexts by this package.
type Logger interface {
	// Named adds a new path segment to the logger's name. Segments are joined by
	// periods.
	Named(s string) Logger

	// With creates a child logger and adds structured context to it.
	With(fields ...Field) Logger

	// WithLevel creates a child logger that only logs at lvl or above. It can
	// only make the logger more restrictive.
	WithLevel(lvl Level) Logger

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Level reports the minimum enabled level for this logger.
	Level() Level

	// Sync flushes any buffered log entries.
	Sync() error
}

// DefaultLogger is used when given a context with no associated logger.
//
// DefaultLogger discards all logs. Replace it with a logger of your own to
// change that.
var DefaultLogger Logger = &logger{
	Logger: zap.NewNop(),
}

// New wraps the given zap core. It is mostly useful in tests, together with
// zaptest/observer.
func New(core zapcore.Core) Logger {
	return &logger{Logger: zap.New(core)}
}

// NewProductionLogger is a reasonable production logging configuration.
// Logging is enabled at the given level and above, and the level can be
// adjusted at runtime through lvl.
//
// It writes JSON to standard error. Stacktraces are included on logs of
// ErrorLevel and above.
func NewProductionLogger(lvl *AtomicLevel, opts ...Option) Logger {
	cfg := logConfig{
		levelKey:   "level",
		caller:     true,
		callerSkip: 1,
		stacktrace: true,
		writer:     _stderr,
		encoder:    zapcore.NewJSONEncoder,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zapOptions []zap.Option
	if cfg.caller {
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(cfg.callerSkip))
	}
	if cfg.stacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zap.ErrorLevel))
	}

	return &logger{
		Logger: zap.New(zapcore.NewCore(cfg.encoder(encoderConfig(cfg)), cfg.writer, lvl), zapOptions...),
	}
}

type logger struct {
	*zap.Logger
}

var _ Logger = (*logger)(nil)

func (l *logger) WithLevel(level Level) Logger {
	return &logger{Logger: l.Logger.WithOptions(zap.IncreaseLevel(level))}
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{Logger: l.Logger.With(fields...)}
}

func (l *logger) Named(s string) Logger {
	return &logger{Logger: l.Logger.Named(s)}
}

func (l *logger) Level() Level {
	return zapcore.LevelOf(l.Core())
}

// WriteSyncer is an io.Writer that can flush.
type WriteSyncer interface {
	io.Writer
	Sync() error
}

type logConfig struct {
	levelKey   string
	caller     bool
	callerSkip int
	stacktrace bool
	writer     WriteSyncer
	encoder    func(zapcore.EncoderConfig) zapcore.Encoder
}

// Option configures a Logger built by NewProductionLogger.
type Option func(s *logConfig)

// WithLevelKey sets the key name of the log level. Default is "level".
func WithLevelKey(key string) Option {
	return func(s *logConfig) {
		s.levelKey = key
	}
}

// WithCaller controls whether a "caller" key with file:line is added.
// Default is true.
func WithCaller(t bool) Option {
	return func(s *logConfig) {
		s.caller = t
	}
}

// WithCallerSkip sets the number of frames skipped by caller annotation.
// Default is 1, which skips this package's wrappers.
func WithCallerSkip(skip int) Option {
	return func(s *logConfig) {
		s.callerSkip = skip
	}
}

// WithStacktraceOnError controls whether entries at ErrorLevel and above carry
// a stacktrace. Default is true.
func WithStacktraceOnError(b bool) Option {
	return func(s *logConfig) {
		s.stacktrace = b
	}
}

// WithJSONEncoding tells the logger to encode entries as JSON. This is the
// default.
func WithJSONEncoding() Option {
	return func(s *logConfig) {
		s.encoder = zapcore.NewJSONEncoder
	}
}

// WithConsoleEncoding tells the logger to use the human friendly console
// encoding.
func WithConsoleEncoding() Option {
	return func(s *logConfig) {
		s.encoder = zapcore.NewConsoleEncoder
	}
}

// WithWriter sets where logs are written to. Default is standard error.
func WithWriter(w WriteSyncer) Option {
	return func(s *logConfig) {
		s.writer = w
	}
}

// Writes to stderr are shared by every logger, so they are synchronized.
var _stderr = zapcore.Lock(zapcore.AddSync(os.Stderr))

func encoderConfig(cfg logConfig) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       cfg.levelKey,
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339MicroTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// rfc3339MicroTimeEncoder serializes a time.Time to a fixed width RFC3339
// string with microsecond precision.
func rfc3339MicroTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	const RFC3339Micro = "2006-01-02T15:04:05.000000Z07:00"

	enc.AppendString(t.UTC().Format(RFC3339Micro))
}
