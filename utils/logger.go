package utils

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/trace"
)

// NewLogger builds the application logger. Production emits JSON, everything else text.
func NewLogger(goEnv string) *slog.Logger {
	return newLogger(os.Stdout, goEnv)
}

func newLogger(w io.Writer, goEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var h slog.Handler
	if goEnv == "production" {
		opts.Level = slog.LevelInfo
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(traceHandler{h})
}

// traceHandler adds trace_id from the record context to every line
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := trace.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}
