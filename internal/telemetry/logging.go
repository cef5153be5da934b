package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a JSON logger on stdout that stamps each record with the
// active trace and span IDs.
func NewLogger(level slog.Level) *slog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, level slog.Level) *slog.Logger {
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(&traceHandler{next: base})
}

// ParseLevel maps a configured level name (debug, info, warn, error) to a
// slog level. Matching ignores case and surrounding space.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// traceHandler delegates to next and adds trace_id and span_id at the top
// level of every record emitted inside a span.
type traceHandler struct {
	next   slog.Handler
	root   slog.Handler
	prefix []func(slog.Handler) slog.Handler
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	traceID, spanID := TraceID(ctx), SpanID(ctx)
	if traceID == "" && spanID == "" {
		return h.next.Handle(ctx, r)
	}

	// Trace IDs go in front of any group so they stay top-level keys.
	handler := h.base().WithAttrs(idAttrs(traceID, spanID))
	for _, apply := range h.prefix {
		handler = apply(handler)
	}
	return handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *traceHandler) derive(apply func(slog.Handler) slog.Handler) *traceHandler {
	prefix := make([]func(slog.Handler) slog.Handler, len(h.prefix), len(h.prefix)+1)
	copy(prefix, h.prefix)
	return &traceHandler{
		next:   apply(h.next),
		root:   h.base(),
		prefix: append(prefix, apply),
	}
}

func (h *traceHandler) base() slog.Handler {
	if h.root != nil {
		return h.root
	}
	return h.next
}

func idAttrs(traceID, spanID string) []slog.Attr {
	attrs := make([]slog.Attr, 0, 2)
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if spanID != "" {
		attrs = append(attrs, slog.String("span_id", spanID))
	}
	return attrs
}
