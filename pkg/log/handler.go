package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler decorates records carrying an error attribute with the
// stacktrace that cockroachdb/errors captured when the error was built.
// Every constructor in cyclestat/pkg/errors attaches one, so a failing
// pipeline stage logged with ErrAttr (or a bare error through the Logger
// interface) comes out with the exact frame that raised it.
type ErrFmtHandler struct {
	handler slog.Handler

	// stacktrace extracted from an error attribute bound via WithAttrs,
	// reused for every record of the derived handler.
	boundStack string
}

// WrapByErrFmtHandler wraps a slog handler so records with an error
// attribute also carry a stacktrace attribute.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	stack := eh.boundStack
	if err := errAttrValue(r); err != nil {
		stack = extractStacktrace(err)
	}
	if stack != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stack))
	}
	return eh.handler.Handle(ctx, r)
}

// errAttrValue returns the error carried under ErrAttrKey, or nil when the
// record has none.
func errAttrValue(r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		found, _ = attr.Value.Any().(error)
		return false
	})
	return found
}

// WithAttrs also inspects the bound attributes: an error attached through
// Logger.With would otherwise bypass the per-record scan in Handle.
func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := eh.boundStack
	for _, attr := range attrs {
		if attr.Key != ErrAttrKey {
			continue
		}
		if err, ok := attr.Value.Any().(error); ok {
			bound = extractStacktrace(err)
		}
	}
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs), boundStack: bound}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g), boundStack: eh.boundStack}
}

// extractStacktrace pulls the first recorded safe detail, which for
// errors built by cyclestat/pkg/errors is the WithStack capture site.
func extractStacktrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) == 0 {
		return ""
	}
	return details[0]
}
