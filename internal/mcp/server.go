// Package mcp exposes line history and blame as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/history"
)

const (
	serverName = "gitwho2blame"

	// toolCount is the expected number of registered tools.
	toolCount = 2

	// DefaultSinceDays is how far back get_code_changes_summary looks when
	// the caller gives no date.
	DefaultSinceDays = 30
)

// ToolRecorder receives one observation per tool call.
type ToolRecorder interface {
	ToolCall(tool, status string, elapsed time.Duration)
}

// RepositoryOpener locates the repository enclosing a path.
type RepositoryOpener func(path string) (*git.Repository, error)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value optional fields use production defaults.
type ServerDeps struct {
	// Provider answers get_code_changes_summary. Required.
	Provider history.Provider

	// Logger is an optional structured logger. Nil discards.
	Logger *slog.Logger

	// Metrics is an optional per-tool recorder. Nil disables it.
	Metrics ToolRecorder

	// Tracer is an optional OTel tracer for per-tool-call spans.
	Tracer trace.Tracer

	// OpenRepository defaults to git.DiscoverRepository.
	OpenRepository RepositoryOpener

	// SinceDays defaults to DefaultSinceDays.
	SinceDays int

	// Now defaults to time.Now.
	Now func() time.Time

	Version string
}

// Server wraps the MCP SDK server with the history tools registered.
type Server struct {
	inner  *mcpsdk.Server
	deps   ServerDeps
	logger *slog.Logger

	mu    sync.RWMutex
	tools []string
}

// NewServer creates an MCP server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.OpenRepository == nil {
		deps.OpenRepository = git.DiscoverRepository
	}
	if deps.SinceDays <= 0 {
		deps.SinceDays = DefaultSinceDays
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: serverName, Version: version},
		&mcpsdk.ServerOptions{Logger: deps.Logger},
	)

	srv := &Server{
		inner:  inner,
		deps:   deps,
		logger: deps.Logger,
		tools:  make([]string, 0, toolCount),
	}
	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves MCP over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves MCP over transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// HTTPHandler serves MCP over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.inner
	}, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCodeChanges,
		Description: codeChangesToolDescription,
	}, withMetrics(s.deps.Metrics, ToolNameCodeChanges, withTracing(s.deps.Tracer, ToolNameCodeChanges, s.handleCodeChanges)))
	s.trackTool(ToolNameCodeChanges)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameBlame,
		Description: blameToolDescription,
	}, withMetrics(s.deps.Metrics, ToolNameBlame, withTracing(s.deps.Tracer, ToolNameBlame, s.handleBlame)))
	s.trackTool(ToolNameBlame)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const mcpSpanPrefix = "mcp."

// withTracing opens a span per invocation. Sampled spans append their trace
// id to the result content.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{Text: "trace_id=" + sc.TraceID().String()})
		}

		return result, output, err
	}
}

func withMetrics[Input any](
	metrics ToolRecorder,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}
		metrics.ToolCall(toolName, status, time.Since(start))

		return result, output, err
	}
}
