package veritas

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// WithLogger attaches a logger to the context. Pipeline stages log
// through it; without one, a default stderr logger is used.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger returns the context's logger, or the default one.
func Logger(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return l
	}
	return defaultLogger
}

var defaultLogger = NewLogger(os.Stderr, false)

// NewLogger builds the module's standard logger. With pretty set it
// writes human-readable console output, otherwise JSON lines.
func NewLogger(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
