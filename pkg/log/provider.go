package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps an existing slog logger. A nil argument wraps the
// process default, which SetupLogger configures.
func NewSlogLogger(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return &slogLogger{base: base}
}

// GetLogger returns a Logger backed by the process-wide slog default.
func GetLogger() Logger {
	return &slogLogger{base: slog.Default()}
}

// GetLoggerWithName returns the default logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return &slogLogger{base: slog.Default().With(slog.String("component", name))}
}

func (l *slogLogger) Debug(msg string, fields ...any) {
	l.base.Debug(msg, normalizeFields(fields)...)
}

func (l *slogLogger) Info(msg string, fields ...any) {
	l.base.Info(msg, normalizeFields(fields)...)
}

func (l *slogLogger) Warn(msg string, fields ...any) {
	l.base.Warn(msg, normalizeFields(fields)...)
}

func (l *slogLogger) Error(msg string, fields ...any) {
	l.base.Error(msg, normalizeFields(fields)...)
}

func (l *slogLogger) With(fields ...any) Logger {
	return &slogLogger{base: l.base.With(normalizeFields(fields)...)}
}

func (l *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return l.base.Enabled(ctx, slog.Level(level))
}

// normalizeFields rewrites a bare leading error into the standard error
// attribute so ErrFmtHandler extracts its stacktrace. An slog.Attr counts
// as a single element in the key/value stream, so the pairing stays valid.
func normalizeFields(fields []any) []any {
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			out := make([]any, 0, len(fields))
			out = append(out, ErrAttr(err))
			out = append(out, fields[1:]...)
			return out
		}
	}
	return fields
}

// SlogProvider is the production LoggerProvider: a JSON slog handler with
// stacktrace extraction and a runtime-adjustable level.
type SlogProvider struct {
	level *slog.LevelVar
	base  *slog.Logger
}

// NewSlogProvider builds a provider writing JSON records to w
// (os.Stdout when nil).
func NewSlogProvider(w io.Writer) *SlogProvider {
	if w == nil {
		w = os.Stdout
	}
	lv := new(slog.LevelVar)
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
	return &SlogProvider{
		level: lv,
		base:  slog.New(handler),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return &slogLogger{base: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{base: p.base.With(slog.String("component", name))}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}
