package observability

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/astrachat/astrachat/internal/config"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// MaxLoggedValueBytes caps string attributes. Prompts embed the whole schema
// and database bodies can be arbitrarily large.
const MaxLoggedValueBytes = 2048

// NewLogger builds the process logger. Every line carries the service,
// profile and configured query engine.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.Observability.LogLevel,
		ReplaceAttr: truncateAttr,
	}
	var handler slog.Handler
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
		slog.String("engine", cfg.Query.Engine),
	)
}

// NopLogger is used by components constructed without a logger.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func truncateAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindString {
		return attr
	}
	value := attr.Value.String()
	if len(value) <= MaxLoggedValueBytes {
		return attr
	}
	cut := MaxLoggedValueBytes
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	dropped := len(value) - cut
	return slog.String(attr.Key, value[:cut]+"...("+strconv.Itoa(dropped)+" bytes truncated)")
}
