// Package cache memoizes back-end lookups behind a time-bounded key/value
// store. Concurrent misses for the same key share one factory call.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind names a family of cached values. It is the second segment of a key.
type Kind string

const (
	KindRepositories Kind = "repositories"
	KindCommits      Kind = "commits"
	KindCommit       Kind = "commit"
	KindFileContent  Kind = "filecontent"
	KindFileDiffs    Kind = "filediffs"
)

// Durations holds the three time-to-live tiers.
type Durations struct {
	Short  time.Duration // commit listings
	Medium time.Duration // repository listings
	Long   time.Duration // immutable per-commit data
}

// DefaultDurations returns the default time-to-live tiers.
func DefaultDurations() Durations {
	return Durations{
		Short:  5 * time.Minute,
		Medium: time.Hour,
		Long:   6 * time.Hour,
	}
}

// Store is a byte-oriented key/value store with per-entry expiry.
type Store interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(key string) ([]byte, bool, error)
	// Set stores value for ttl.
	Set(key string, value []byte, ttl time.Duration) error
	Close() error
}

// Recorder receives hit and miss notifications per key kind.
type Recorder interface {
	CacheHit(kind string)
	CacheMiss(kind string)
}

// Cache wraps a Store with typed, deduplicated lookups.
type Cache struct {
	store     Store
	logger    *slog.Logger
	recorder  Recorder
	durations Durations
	timeout   time.Duration
	flight    singleflight.Group
}

// DefaultFactoryTimeout bounds a shared factory call once it no longer
// follows any caller's cancellation.
const DefaultFactoryTimeout = 2 * time.Minute

// Option configures a Cache.
type Option func(*Cache)

// WithRecorder sets the hit/miss receiver.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// WithDurations overrides the default time-to-live tiers.
func WithDurations(d Durations) Option {
	return func(c *Cache) { c.durations = d }
}

// WithFactoryTimeout overrides DefaultFactoryTimeout. Zero or negative
// leaves factories unbounded.
func WithFactoryTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// New creates a Cache over store. A nil logger discards output.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Cache{
		store:     store,
		logger:    logger,
		durations: DefaultDurations(),
		timeout:   DefaultFactoryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Durations returns the configured time-to-live tiers.
func (c *Cache) Durations() Durations {
	return c.durations
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// GetOrAdd returns the cached value for key, or runs factory, stores its
// result for ttl and returns it. Factory errors are returned and not cached.
// Values round-trip through JSON, so each caller receives its own copy.
//
// Concurrent callers of one key share a single factory call. That call runs
// detached from every caller's cancellation but keeps the first caller's
// context values. A caller that gives up returns its own ctx.Err() while
// the others still receive the result.
func GetOrAdd[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	var zero T
	kind := kindOf(key)

	if v, ok := lookup[T](c, key); ok {
		c.hit(kind)
		return v, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		if raw, ok, err := c.store.Get(key); err == nil && ok {
			return raw, nil
		}
		c.miss(kind)

		factoryCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			factoryCtx, cancel = context.WithTimeout(factoryCtx, c.timeout)
			defer cancel()
		}
		v, err := factory(factoryCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if err := c.store.Set(key, raw, ttl); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		var v T
		if err := json.Unmarshal(res.Val.([]byte), &v); err != nil {
			return zero, fmt.Errorf("decode cache entry %s: %w", key, err)
		}
		return v, nil
	}
}

func lookup[T any](c *Cache, key string) (T, bool) {
	var v T
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("discarding undecodable cache entry", slog.String("key", key), slog.Any("error", err))
		return v, false
	}
	return v, true
}

func (c *Cache) hit(kind string) {
	if c.recorder != nil {
		c.recorder.CacheHit(kind)
	}
}

func (c *Cache) miss(kind string) {
	if c.recorder != nil {
		c.recorder.CacheMiss(kind)
	}
}

// Key builds a cache key "provider:kind:part1:part2...". The provider tag is
// lower-cased and time parts are rendered as yyyyMMddHHmmss in UTC.
func Key(provider string, kind Kind, parts ...any) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, strings.ToLower(provider), string(kind))
	for _, p := range parts {
		switch v := p.(type) {
		case time.Time:
			segments = append(segments, v.UTC().Format("20060102150405"))
		case string:
			segments = append(segments, v)
		default:
			segments = append(segments, fmt.Sprint(v))
		}
	}
	return strings.Join(segments, ":")
}

func kindOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}
