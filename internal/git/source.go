package git

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/masmgr/gitwho2blame-go/internal/cache"
	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// ProviderName is the tag of the local back-end.
const ProviderName = "local"

// Source serves history.Source from a repository on disk.
type Source struct {
	engine Engine
	cache  *cache.Cache
	logger *slog.Logger
}

// NewSource creates a local Source. c may be nil to disable caching.
func NewSource(engine Engine, c *cache.Cache, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{engine: engine, cache: c, logger: logger}
}

// NewEngine returns the engine for kind.
func NewEngine(kind EngineKind) Engine {
	if kind == EngineGitCLI {
		return NewCLIEngine("")
	}
	return NewGoGitEngine()
}

// Name implements history.Source.
func (s *Source) Name() string {
	return ProviderName
}

// ListCommits implements history.Source. The repository is discovered from
// req.RepoRoot; a missing repository is ErrNotFound.
func (s *Source) ListCommits(ctx context.Context, req history.Request) ([]history.CommitRef, error) {
	repo, err := DiscoverRepository(req.RepoRoot)
	if err != nil {
		s.logger.WarnContext(ctx, "could not find repository", slog.String("path", req.RepoRoot), slog.Any("error", err))
		return nil, err
	}

	opts := LogOptions{RepoPath: repo.Root, Branch: req.Branch, Path: NormalizePath(req.FilePath), Since: req.Since}
	commits, err := s.log(ctx, opts)
	if err != nil {
		return nil, err
	}

	refs := make([]history.CommitRef, 0, len(commits))
	for _, c := range commits {
		refs = append(refs, history.CommitRef{
			ID:        c.SHA,
			ParentID:  c.ParentSHA(),
			Author:    c.Author.Name,
			Message:   c.Message,
			Timestamp: c.Author.When,
		})
	}
	return refs, nil
}

func (s *Source) log(ctx context.Context, opts LogOptions) ([]CommitInfo, error) {
	if s.cache == nil {
		return s.engine.Log(ctx, opts)
	}
	key := cache.Key(ProviderName, cache.KindCommits, opts.RepoPath, opts.Branch, opts.Path, opts.Since)
	return cache.GetOrAdd(ctx, s.cache, key, s.cache.Durations().Short, func(ctx context.Context) ([]CommitInfo, error) {
		return s.engine.Log(ctx, opts)
	})
}

// ResolveDiff implements history.Source. Local commits are always
// represented as a patch against the first parent.
func (s *Source) ResolveDiff(ctx context.Context, req history.Request, commit history.CommitRef) (*history.DiffRepresentation, error) {
	repo, err := DiscoverRepository(req.RepoRoot)
	if err != nil {
		return nil, err
	}
	path := NormalizePath(req.FilePath)
	info := CommitInfo{SHA: commit.ID}
	if commit.ParentID != "" {
		info.Parents = []string{commit.ParentID}
	}

	patch, err := s.patch(ctx, repo.Root, info, path)
	if err != nil {
		s.logger.WarnContext(ctx, "no usable patch", slog.String("commit", commit.ID), slog.String("file", path), slog.Any("error", err))
		return nil, err
	}

	return &history.DiffRepresentation{
		ParentID: commit.ParentID,
		// An added file with no textual hunks (empty or binary) has nothing
		// to parse, so its current content stands in for the change.
		IsAddition: patch.Kind == ChangeKindAdded && patch.Patch == "",
		Format:     history.FormatPatch,
		Patch:      patch.Patch,
	}, nil
}

func (s *Source) patch(ctx context.Context, root string, info CommitInfo, path string) (*FilePatch, error) {
	if s.cache == nil {
		return s.engine.Patch(ctx, root, info, path)
	}
	key := cache.Key(ProviderName, cache.KindFileDiffs, root, path, info.SHA)
	return cache.GetOrAdd(ctx, s.cache, key, s.cache.Durations().Long, func(ctx context.Context) (*FilePatch, error) {
		return s.engine.Patch(ctx, root, info, path)
	})
}

// FetchContent implements history.Source.
func (s *Source) FetchContent(ctx context.Context, req history.Request, revision string) ([]byte, error) {
	repo, err := DiscoverRepository(req.RepoRoot)
	if err != nil {
		return nil, err
	}
	path := NormalizePath(req.FilePath)
	if s.cache == nil {
		return s.engine.Show(ctx, repo.Root, revision, path)
	}
	key := cache.Key(ProviderName, cache.KindFileContent, repo.Root, path, revision)
	content, err := cache.GetOrAdd(ctx, s.cache, key, s.cache.Durations().Long, func(ctx context.Context) ([]byte, error) {
		return s.engine.Show(ctx, repo.Root, revision, path)
	})
	if err != nil {
		return nil, fmt.Errorf("local content: %w", err)
	}
	return content, nil
}

// Compile-time interface conformance check.
var _ history.Source = (*Source)(nil)
