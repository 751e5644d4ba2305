package api

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// traceContextHandler stamps records logged with a traced context with the
// span's trace_id and span_id.
type traceContextHandler struct {
	slog.Handler
}

func (h traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceContextHandler) WithGroup(name string) slog.Handler {
	return traceContextHandler{h.Handler.WithGroup(name)}
}

// NewLogger returns a JSON logger tagged with serviceName.
func NewLogger(w io.Writer, serviceName string, level slog.Level) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(traceContextHandler{jsonHandler}).With(slog.String("service", serviceName))
}

func SetupGlobalHandler(serviceName string, level slog.Level) {
	slog.SetDefault(NewLogger(os.Stdout, serviceName, level))
	slog.Info("Logger initialized", "service", serviceName, "level", level.String())
}
