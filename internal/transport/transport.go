// Package transport provides the HTTP plumbing shared by hosted providers.
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 30 * time.Second

// RequestRecorder receives one notification per completed request.
type RequestRecorder interface {
	APIRequest(host, code string)
}

// Options configures NewClient.
type Options struct {
	// RequestsPerSecond caps outbound requests. Zero or negative disables the cap.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Logger            *slog.Logger
	Recorder          RequestRecorder
	// Base is the wrapped transport. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTripper throttles requests with a token bucket and records outcomes.
type RoundTripper struct {
	base     http.RoundTripper
	limiter  *rate.Limiter
	logger   *slog.Logger
	recorder RequestRecorder
}

// NewRoundTripper wraps opts.Base.
func NewRoundTripper(opts Options) *RoundTripper {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &RoundTripper{
		base:     base,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
		recorder: opts.Recorder,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	code := "error"
	if err == nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	if t.recorder != nil {
		t.recorder.APIRequest(req.URL.Host, code)
	}
	t.logger.DebugContext(req.Context(), "provider request",
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("path", req.URL.Path),
		slog.String("status", code),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp, err
}

// NewClient returns an http.Client using a throttled RoundTripper.
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: NewRoundTripper(opts),
		Timeout:   timeout,
	}
}
