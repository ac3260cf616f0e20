package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// New builds the process logger. It is also installed as zerolog's default
// context logger so zerolog.Ctx never returns a disabled logger.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "seasnacky").Logger()
	zerolog.DefaultContextLogger = &l
	return l
}

// WithTrace adds the active span's trace id to the logger carried by ctx.
func WithTrace(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return l
	}
	return l.With().Str("trace_id", sc.TraceID().String()).Logger()
}
