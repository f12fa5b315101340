package azure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	adogit "github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"

	"github.com/masmgr/gitwho2blame-go/internal/cache"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// ProviderName is the tag of the Azure DevOps back-end.
const ProviderName = "azure"

// pageSize is the number of commits requested per GetCommits call.
const pageSize = 100

// repository is the cached projection of an Azure DevOps repository.
type repository struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source serves history.Source from the Azure DevOps Git REST API.
type Source struct {
	client  Client
	project string
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewSource creates an Azure DevOps Source for project. c may be nil to
// disable caching.
func NewSource(client Client, project string, c *cache.Cache, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{client: client, project: project, cache: c, logger: logger}
}

// Name implements history.Source.
func (s *Source) Name() string {
	return ProviderName
}

// ListCommits implements history.Source.
func (s *Source) ListCommits(ctx context.Context, req history.Request) ([]history.CommitRef, error) {
	repo, err := s.resolveRepository(ctx, req.RepoName)
	if err != nil {
		return nil, err
	}

	key := cache.Key(ProviderName, cache.KindCommits, s.project, repo.ID, req.FilePath, req.Since)
	return getOrAdd(ctx, s, key, s.durations().Short, func(ctx context.Context) ([]history.CommitRef, error) {
		criteria := &adogit.GitQueryCommitsCriteria{ItemPath: ptr(itemPath(req.FilePath))}
		if !req.Since.IsZero() {
			criteria.FromDate = ptr(req.Since.UTC().Format(time.RFC3339))
		}

		var refs []history.CommitRef
		for skip := 0; ; skip += pageSize {
			page, err := s.client.GetCommits(ctx, adogit.GetCommitsArgs{
				RepositoryId:   ptr(repo.ID),
				Project:        ptr(s.project),
				SearchCriteria: criteria,
				Skip:           ptr(skip),
				Top:            ptr(pageSize),
			})
			if err != nil {
				return nil, translate(err, "list commits of %s", req.FilePath)
			}
			if page == nil {
				break
			}
			for _, c := range *page {
				refs = append(refs, commitRefFromRef(c))
			}
			if len(*page) < pageSize {
				break
			}
		}
		if refs == nil {
			refs = []history.CommitRef{}
		}
		return refs, nil
	})
}

// ResolveDiff implements history.Source. Azure DevOps exposes line blocks
// without text, so the representation carries FormatBlocks and the
// Aggregator reads both snapshots. A commit without parents is an addition.
func (s *Source) ResolveDiff(ctx context.Context, req history.Request, commit history.CommitRef) (*history.DiffRepresentation, error) {
	repo, err := s.resolveRepository(ctx, req.RepoName)
	if err != nil {
		return nil, err
	}

	key := cache.Key(ProviderName, cache.KindCommit, s.project, repo.ID, commit.ID)
	details, err := getOrAdd(ctx, s, key, s.durations().Long, func(ctx context.Context) (history.CommitRef, error) {
		c, err := s.client.GetCommit(ctx, adogit.GetCommitArgs{
			CommitId:     ptr(commit.ID),
			RepositoryId: ptr(repo.ID),
			Project:      ptr(s.project),
		})
		if err != nil {
			return history.CommitRef{}, translate(err, "get commit %s", commit.ID)
		}
		return commitRefFromCommit(c), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "commit not found", slog.String("commit", commit.ID), slog.String("repo", repo.Name), slog.Any("error", err))
		return nil, err
	}

	if details.ParentID == "" {
		return &history.DiffRepresentation{Commit: details, IsAddition: true, Format: history.FormatBlocks}, nil
	}

	diffKey := cache.Key(ProviderName, cache.KindFileDiffs, s.project, repo.ID, details.ParentID, details.ID, req.FilePath)
	blocks, err := getOrAdd(ctx, s, diffKey, s.durations().Long, func(ctx context.Context) ([]linediff.LineDiffBlock, error) {
		path := itemPath(req.FilePath)
		diffs, err := s.client.GetFileDiffs(ctx, GetFileDiffsArgs{
			Project:      ptr(s.project),
			RepositoryId: ptr(repo.ID),
			FileDiffsCriteria: &adogit.FileDiffsCriteria{
				BaseVersionCommit:   ptr(details.ParentID),
				TargetVersionCommit: ptr(details.ID),
				FileDiffParams:      &[]adogit.FileDiffParams{{Path: ptr(path), OriginalPath: ptr(path)}},
			},
		})
		if err != nil {
			return nil, translate(err, "get file diffs of %s at %s", req.FilePath, details.ID)
		}
		return collectBlocks(diffs), nil
	})
	if err != nil {
		return nil, err
	}

	return &history.DiffRepresentation{
		Commit:   details,
		ParentID: details.ParentID,
		Format:   history.FormatBlocks,
		Blocks:   blocks,
	}, nil
}

// FetchContent implements history.Source.
func (s *Source) FetchContent(ctx context.Context, req history.Request, revision string) ([]byte, error) {
	repo, err := s.resolveRepository(ctx, req.RepoName)
	if err != nil {
		return nil, err
	}

	key := cache.Key(ProviderName, cache.KindFileContent, s.project, repo.ID, req.FilePath, revision)
	return getOrAdd(ctx, s, key, s.durations().Long, func(ctx context.Context) ([]byte, error) {
		body, err := s.client.GetItemContent(ctx, adogit.GetItemContentArgs{
			RepositoryId: ptr(repo.ID),
			Project:      ptr(s.project),
			Path:         ptr(itemPath(req.FilePath)),
			VersionDescriptor: &adogit.GitVersionDescriptor{
				Version:     ptr(revision),
				VersionType: &adogit.GitVersionTypeValues.Commit,
			},
		})
		if err != nil {
			return nil, translate(err, "get %s at %s", req.FilePath, revision)
		}
		defer body.Close()
		content, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read %s at %s: %w", req.FilePath, revision, err)
		}
		return content, nil
	})
}

// resolveRepository finds the project repository named name, ignoring case.
// The project listing is cached.
func (s *Source) resolveRepository(ctx context.Context, name string) (repository, error) {
	key := cache.Key(ProviderName, cache.KindRepositories, s.project)
	repos, err := getOrAdd(ctx, s, key, s.durations().Medium, func(ctx context.Context) ([]repository, error) {
		list, err := s.client.GetRepositories(ctx, adogit.GetRepositoriesArgs{Project: ptr(s.project)})
		if err != nil {
			return nil, translate(err, "list repositories of %s", s.project)
		}
		if list == nil {
			return []repository{}, nil
		}
		repos := make([]repository, 0, len(*list))
		for _, r := range *list {
			repo := repository{Name: deref(r.Name)}
			if r.Id != nil {
				repo.ID = r.Id.String()
			}
			repos = append(repos, repo)
		}
		return repos, nil
	})
	if err != nil {
		return repository{}, err
	}

	for _, r := range repos {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	s.logger.WarnContext(ctx, "repository not found", slog.String("project", s.project), slog.String("repo", name))
	return repository{}, fmt.Errorf("repository %q in project %q: %w", name, s.project, history.ErrNotFound)
}

func (s *Source) durations() cache.Durations {
	if s.cache == nil {
		return cache.DefaultDurations()
	}
	return s.cache.Durations()
}

func getOrAdd[T any](ctx context.Context, s *Source, key string, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return factory(ctx)
	}
	return cache.GetOrAdd(ctx, s.cache, key, ttl, factory)
}

func collectBlocks(diffs *[]adogit.FileDiff) []linediff.LineDiffBlock {
	blocks := []linediff.LineDiffBlock{}
	if diffs == nil {
		return blocks
	}
	for _, d := range *diffs {
		if d.LineDiffBlocks == nil {
			continue
		}
		for _, b := range *d.LineDiffBlocks {
			kind := linediff.ChangeKindNone
			if b.ChangeType != nil {
				kind = linediff.ParseChangeKind(string(*b.ChangeType))
			}
			blocks = append(blocks, linediff.LineDiffBlock{
				ChangeKind:    kind,
				OriginalStart: deref(b.OriginalLineNumberStart),
				OriginalCount: deref(b.OriginalLinesCount),
				ModifiedStart: deref(b.ModifiedLineNumberStart),
				ModifiedCount: deref(b.ModifiedLinesCount),
			})
		}
	}
	return blocks
}

func commitRefFromRef(c adogit.GitCommitRef) history.CommitRef {
	ref := history.CommitRef{ID: deref(c.CommitId), Message: deref(c.Comment)}
	if c.Parents != nil && len(*c.Parents) > 0 {
		ref.ParentID = (*c.Parents)[0]
	}
	if c.Author != nil {
		ref.Author = deref(c.Author.Name)
		ref.Timestamp = timeOf(c.Author.Date)
	}
	return ref
}

func commitRefFromCommit(c *adogit.GitCommit) history.CommitRef {
	ref := history.CommitRef{ID: deref(c.CommitId), Message: deref(c.Comment)}
	if c.Parents != nil && len(*c.Parents) > 0 {
		ref.ParentID = (*c.Parents)[0]
	}
	if c.Author != nil {
		ref.Author = deref(c.Author.Name)
		ref.Timestamp = timeOf(c.Author.Date)
	}
	return ref
}

// itemPath returns path rooted at "/" with forward slashes.
func itemPath(path string) string {
	return "/" + strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "/")
}

func timeOf(t *azuredevops.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Compile-time interface conformance check.
var _ history.Source = (*Source)(nil)
