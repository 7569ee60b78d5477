package log

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"cyclestat/pkg/errors"
)

// Attribute keys shared between the slog provider and the error-formatting
// handler.
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// exportRenames maps slog's built-in keys onto the names downstream log
// collectors expect.
var exportRenames = map[string]string{
	slog.LevelKey:   "severity",
	slog.MessageKey: "message",
}

// SetupLogger installs the process-wide JSON slog handler and routes
// analysis warnings (for example lasso convergence warnings) through a
// structured zerolog sink on stderr.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if renamed, ok := exportRenames[attr.Key]; ok {
				attr.Key = renamed
			}
			return attr
		},
	}
	base := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(base)))

	BridgeWarnings(zerolog.New(os.Stderr).With().Timestamp().Logger())
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ToLogLevel converts a level name into a slog.Level. Unknown names panic;
// the CLI validates its --log-level flag before this is reached.
func ToLogLevel(level string) slog.Level {
	l, ok := logLevels[level]
	if !ok {
		panic(fmt.Sprintf("unknown log level %q", level))
	}
	return l
}

// BridgeWarnings registers a zerolog-backed sink for the warning channel in
// pkg/errors. Warning types that implement zerolog.LogObjectMarshaler are
// rendered structurally.
func BridgeWarnings(zl zerolog.Logger) {
	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}

// ErrAttr places err under the standard error key so the wrapping handler
// can find it.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
