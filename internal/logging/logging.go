// Package logging is a small structured logger over log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Field is a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field        { return Field{Key: key, Value: value} }
func Int(key string, value int) Field       { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }
func Float(key string, value float64) Field { return Field{Key: key, Value: value} }
func Err(err error) Field                   { return Field{Key: "error", Value: err} }
func Any(key string, value any) Field       { return Field{Key: key, Value: value} }

// Logger is the structured logging interface used across the simulator.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config controls basic logger behaviour.
type Config struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // json or text
	AddSource bool   `yaml:"add_source"`
}

// New constructs a Logger writing to stderr.
func New(cfg Config) Logger {
	return NewWriter(os.Stderr, cfg)
}

// NewWriter constructs a Logger writing to w.
func NewWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &slogger{l: slog.New(handler)}
}

// FromEnv fills empty fields of cfg from METEORSIM_LOG_LEVEL and
// METEORSIM_LOG_FORMAT.
func FromEnv(cfg Config) Config {
	if cfg.Level == "" {
		cfg.Level = os.Getenv("METEORSIM_LOG_LEVEL")
	}
	if cfg.Format == "" {
		cfg.Format = os.Getenv("METEORSIM_LOG_FORMAT")
	}
	return cfg
}

// Noop returns a logger that drops all logs.
func Noop() Logger { return noopLogger{} }

type slogger struct {
	l *slog.Logger
}

func (s *slogger) With(fields ...Field) Logger {
	return &slogger{l: s.l.With(toArgs(fields...)...)}
}

func (s *slogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, toArgs(fields...)...) }
func (s *slogger) Info(msg string, fields ...Field)  { s.l.Info(msg, toArgs(fields...)...) }
func (s *slogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, toArgs(fields...)...) }
func (s *slogger) Error(msg string, fields ...Field) { s.l.Error(msg, toArgs(fields...)...) }

type noopLogger struct{}

func (noopLogger) With(...Field) Logger   { return noopLogger{} }
func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

func toArgs(fields ...Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, slog.Any(f.Key, f.Value))
	}
	return args
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
