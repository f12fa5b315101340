// Package observability holds logging, metrics and tracing helpers.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrVersion = "version"
)

// ServiceName is attached to every log record.
const ServiceName = "gitwho2blame"

// StderrPath selects standard error as the log sink.
const StderrPath = "-"

// LogOptions configures NewLogger.
type LogOptions struct {
	// Path is the log file. Empty or "-" writes to standard error.
	Path    string
	Level   string // debug, info, warn, error
	Format  string // text or json
	Version string
}

// TracingHandler is an [slog.Handler] that adds the active span's trace and
// span IDs to each record.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner and pre-attaches service metadata.
func NewTracingHandler(inner slog.Handler, version string) *TracingHandler {
	attrs := []slog.Attr{slog.String(attrService, ServiceName)}
	if version != "" {
		attrs = append(attrs, slog.String(attrVersion, version))
	}
	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context attributes, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}
	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}
	return nil
}

// WithAttrs returns a new TracingHandler with additional attributes.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a new TracingHandler with a group prefix.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}

// ParseLevel converts a level name to an slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger. When the MCP server speaks over
// stdio the log must go to a file, since stdout carries the protocol.
// The returned closer releases the log file.
func NewLogger(opts LogOptions) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" && opts.Path != StderrPath {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", opts.Path, err)
		}
		w, closer = f, f
	}
	return slog.New(NewTracingHandler(newHandler(w, opts), opts.Version)), closer, nil
}

func newHandler(w io.Writer, opts LogOptions) slog.Handler {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "json") {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}
