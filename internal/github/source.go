package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v75/github"

	"github.com/masmgr/gitwho2blame-go/internal/cache"
	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// ProviderName is the tag of the GitHub back-end.
const ProviderName = "github"

// fileStatusAdded is the status GitHub reports for a file created by a commit.
const fileStatusAdded = "added"

// commitFiles is the cached projection of a commit: metadata plus the
// per-file patches.
type commitFiles struct {
	Commit history.CommitRef `json:"commit"`
	Files  []fileDiff        `json:"files"`
}

type fileDiff struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
}

// Source serves history.Source from the GitHub REST API.
type Source struct {
	client Client
	cache  *cache.Cache
	logger *slog.Logger
}

// NewSource creates a GitHub Source. c may be nil to disable caching.
func NewSource(client Client, c *cache.Cache, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{client: client, cache: c, logger: logger}
}

// Name implements history.Source.
func (s *Source) Name() string {
	return ProviderName
}

// ListCommits implements history.Source. A repository GitHub does not know
// yields history.ErrNotFound.
func (s *Source) ListCommits(ctx context.Context, req history.Request) ([]history.CommitRef, error) {
	key := cache.Key(ProviderName, cache.KindCommits, req.Owner, req.RepoName, req.FilePath, req.Since)
	return getOrAdd(ctx, s, key, durationShort, func(ctx context.Context) ([]history.CommitRef, error) {
		commits, err := s.client.ListFileCommits(ctx, req.Owner, req.RepoName, req.FilePath, req.Since)
		if err != nil {
			return nil, err
		}
		refs := make([]history.CommitRef, 0, len(commits))
		for _, c := range commits {
			refs = append(refs, commitRef(c))
		}
		return refs, nil
	})
}

// ResolveDiff implements history.Source. The file is located in the commit
// case-insensitively and its patch is used as is. Files created by the
// commit without a patch (too large for the API) fall back to content.
func (s *Source) ResolveDiff(ctx context.Context, req history.Request, commit history.CommitRef) (*history.DiffRepresentation, error) {
	key := cache.Key(ProviderName, cache.KindCommit, req.Owner, req.RepoName, commit.ID)
	details, err := getOrAdd(ctx, s, key, durationLong, func(ctx context.Context) (commitFiles, error) {
		c, err := s.client.GetCommit(ctx, req.Owner, req.RepoName, commit.ID)
		if err != nil {
			return commitFiles{}, err
		}
		return projectCommit(c), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "commit not found", slog.String("commit", commit.ID), slog.String("repo", req.RepoName), slog.Any("error", err))
		return nil, err
	}

	file, ok := findFile(details.Files, req.FilePath)
	if !ok {
		s.logger.WarnContext(ctx, "file not found in commit", slog.String("commit", commit.ID), slog.String("file", req.FilePath))
		return nil, fmt.Errorf("%s in commit %s: %w", req.FilePath, commit.ID, history.ErrNotFound)
	}

	rep := &history.DiffRepresentation{
		Commit:   details.Commit,
		ParentID: details.Commit.ParentID,
		Format:   history.FormatPatch,
		Patch:    file.Patch,
	}
	if file.Patch == "" && strings.EqualFold(file.Status, fileStatusAdded) {
		rep.IsAddition = true
	}
	return rep, nil
}

// FetchContent implements history.Source.
func (s *Source) FetchContent(ctx context.Context, req history.Request, revision string) ([]byte, error) {
	key := cache.Key(ProviderName, cache.KindFileContent, req.Owner, req.RepoName, req.FilePath, revision)
	return getOrAdd(ctx, s, key, durationLong, func(ctx context.Context) ([]byte, error) {
		return s.client.GetFileContents(ctx, req.Owner, req.RepoName, req.FilePath, revision)
	})
}

type durationTier int

const (
	durationShort durationTier = iota
	durationLong
)

func getOrAdd[T any](ctx context.Context, s *Source, key string, tier durationTier, factory func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return factory(ctx)
	}
	ttl := s.cache.Durations().Long
	if tier == durationShort {
		ttl = s.cache.Durations().Short
	}
	return cache.GetOrAdd(ctx, s.cache, key, ttl, factory)
}

func commitRef(c *github.RepositoryCommit) history.CommitRef {
	ref := history.CommitRef{ID: c.GetSHA()}
	if len(c.Parents) > 0 {
		ref.ParentID = c.Parents[0].GetSHA()
	}
	if author := c.GetCommit().GetAuthor(); author != nil {
		ref.Author = author.GetName()
		ref.Timestamp = author.GetDate().Time
	}
	ref.Message = c.GetCommit().GetMessage()
	return ref
}

func projectCommit(c *github.RepositoryCommit) commitFiles {
	files := make([]fileDiff, 0, len(c.Files))
	for _, f := range c.Files {
		files = append(files, fileDiff{Filename: f.GetFilename(), Status: f.GetStatus(), Patch: f.GetPatch()})
	}
	return commitFiles{Commit: commitRef(c), Files: files}
}

func findFile(files []fileDiff, path string) (fileDiff, bool) {
	path = strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
	for _, f := range files {
		if strings.EqualFold(f.Filename, path) {
			return f, true
		}
	}
	return fileDiff{}, false
}

// Compile-time interface conformance check.
var _ history.Source = (*Source)(nil)
