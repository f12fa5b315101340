// Package server hosts the MCP streamable HTTP endpoint next to the
// operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Route paths.
const (
	PathMCP     = "/mcp"
	PathMetrics = "/metrics"
	PathHealth  = "/healthz"
)

const shutdownTimeout = 5 * time.Second

// RouterDeps holds the handlers mounted on the router.
type RouterDeps struct {
	// MCP serves the streamable HTTP transport. Required.
	MCP http.Handler
	// Metrics is optional; nil leaves /metrics unmounted.
	Metrics http.Handler
	Logger  *slog.Logger
	Version string
}

// NewRouter builds the gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET(PathHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Version})
	})
	if deps.Metrics != nil {
		r.GET(PathMetrics, gin.WrapH(deps.Metrics))
	}
	r.Any(PathMCP, gin.WrapH(deps.MCP))

	return r
}

// requestLogger logs one line per request at Debug.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.DebugContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.InfoContext(ctx, "http server stopped")
	return nil
}
