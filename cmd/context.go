package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitwho2blame-go/config"
	"github.com/masmgr/gitwho2blame-go/internal/azure"
	"github.com/masmgr/gitwho2blame-go/internal/cache"
	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/github"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/observability"
	"github.com/masmgr/gitwho2blame-go/internal/transport"
)

// CommandContext holds the state shared by every command: configuration,
// logger, metrics, cache and the selected provider.
type CommandContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Cache    *cache.Cache
	Provider *history.Aggregator

	closers []io.Closer
}

// NewCommandContext creates a context from CLI flags.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := observability.NewLogger(observability.LogOptions{
		Path:    cfg.Log.Path,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Version: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	cc := &CommandContext{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		closers: []io.Closer{logCloser},
	}

	cc.Cache, err = newCache(cfg.Cache, logger, cc.Metrics)
	if err != nil {
		cc.Close()
		return nil, err
	}
	cc.closers = append(cc.closers, cc.Cache)

	source, err := newSource(c.Context, cfg, cc.Cache, logger, cc.Metrics)
	if err != nil {
		cc.Close()
		return nil, err
	}
	cc.Provider = history.NewAggregator(source, logger,
		history.WithRecorder(cc.Metrics),
		history.WithExclude(cfg.Filters.Exclude),
		history.WithTracer(observability.Tracer("github.com/masmgr/gitwho2blame-go/history")),
	)

	logger.Info("provider ready",
		slog.String("provider", source.Name()),
		slog.String("cache", cfg.Cache.Store),
	)
	return cc, nil
}

// Close releases the cache and the log file.
func (cc *CommandContext) Close() error {
	var errs []error
	for i := len(cc.closers) - 1; i >= 0; i-- {
		if err := cc.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newCache(cfg config.CacheConfig, logger *slog.Logger, metrics *observability.Metrics) (*cache.Cache, error) {
	var store cache.Store
	switch cfg.Store {
	case "badger":
		badgerStore, err := cache.OpenBadger(cache.BadgerConfig{Dir: cfg.Dir, InMemory: cfg.Dir == "", Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		store = badgerStore
	default:
		store = cache.NewMemoryStore(cfg.MaxEntries)
	}

	return cache.New(store, logger,
		cache.WithRecorder(metrics),
		cache.WithDurations(cache.Durations{
			Short:  time.Duration(cfg.ShortTTL),
			Medium: time.Duration(cfg.MediumTTL),
			Long:   time.Duration(cfg.LongTTL),
		}),
	), nil
}

func newSource(ctx context.Context, cfg *config.Config, c *cache.Cache, logger *slog.Logger, metrics *observability.Metrics) (history.Source, error) {
	switch cfg.Provider {
	case config.ProviderLocal:
		kind, err := git.ParseEngineKind(cfg.Local.Engine)
		if err != nil {
			return nil, err
		}
		return git.NewSource(git.NewEngine(kind), c, logger), nil

	case config.ProviderGitHub:
		client, err := github.NewRESTClient(github.ClientOptions{
			Token:   cfg.GitHub.Token,
			BaseURL: cfg.GitHub.BaseURL,
			HTTPClient: transport.NewClient(transport.Options{
				RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
				Logger:            logger,
				Recorder:          metrics,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create github client: %w", err)
		}
		return github.NewSource(client, c, logger), nil

	case config.ProviderAzure:
		client, err := azure.NewClient(ctx, azure.ConnectionOptions{
			OrgURL:  cfg.Azure.OrgURL,
			Token:   cfg.Azure.Token,
			Timeout: transport.DefaultTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create azure devops client: %w", err)
		}
		return azure.NewSource(client, cfg.Azure.Project, c, logger), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
