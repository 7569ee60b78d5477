// Package log provides structured logging for the analysis pipeline.
//
// It defines a minimal, slog-compatible Logger interface so pipeline
// components can log through an injected implementation (the slog-backed
// default in production, TestLogger in tests), plus the standard attribute
// keys every stage logs under. The interface mirrors log/slog: levels are
// numerically compatible and fields are alternating key/value pairs.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("analysis").With(
//	    log.StageKey, log.StageReduce,
//	)
//	logger.Info("lasso path selected",
//	    log.LambdaKey, 0.0240,
//	    log.RuleKey, "1se",
//	    log.FoldsKey, 10,
//	)
package log

import (
	"context"
)

// Logger is the structured logging interface used throughout the pipeline.
//
// Implementations must accept fields as alternating key/value pairs, the
// slog convention. Error accepts a bare error as its first field; the
// slog-backed implementation rewrites it under the standard error key so
// the stacktrace handler can pick it up.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-fold CV
	// scores or individual stepwise moves. Usually disabled outside
	// development runs.
	Debug(msg string, fields ...any)

	// Info logs the normal operational flow: stage boundaries, row and
	// predictor counts, selected penalties, written artifacts.
	Info(msg string, fields ...any)

	// Warn logs recoverable conditions that do not halt the run, for
	// example a coordinate descent sweep hitting its iteration budget.
	Warn(msg string, fields ...any)

	// Error logs a failing stage. If the first field is an error value
	// it is rendered under the standard error attribute key.
	Error(msg string, fields ...any)

	// With returns a new Logger that includes the given fields in every
	// subsequent record. Stages use this to pin their stage attribute:
	//
	//	stageLog := logger.With(log.StageKey, log.StageFit, log.FitKey, "B")
	With(fields ...any) Logger

	// Enabled reports whether records at the given level would be
	// emitted, so callers can skip building expensive attribute values.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are numerically compatible
// with slog.Level so implementations can convert directly.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It exists for dependency
// injection: the pipeline runner asks a provider for its logger, and tests
// swap in TestLoggerProvider to capture output.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for all loggers from this provider.
	SetLevel(level Level)
}
