package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// UnknownOwner is reported when a remote exists but is not a GitHub URL.
const UnknownOwner = "Unknown"

var githubOwnerRegex = regexp.MustCompile(`(?i)github\.com[/:]([^/]+)/`)

// Repository is an opened local repository.
type Repository struct {
	Root string
	repo *git.Repository
}

// DiscoverRepository opens the repository containing path, searching
// parent directories for the .git entry.
func DiscoverRepository(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("no repository at %s: %w", path, history.ErrNotFound)
		}
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repository{Root: root, repo: repo}, nil
}

// Owner returns the account segment of the repository's GitHub remote URL.
// It prefers the "origin" remote. ok is false when there is no remote;
// non-GitHub remotes yield UnknownOwner.
func (r *Repository) Owner() (owner string, ok bool, err error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return "", false, fmt.Errorf("list remotes: %w", err)
	}
	if len(remotes) == 0 {
		return "", false, nil
	}
	sort.Slice(remotes, func(i, j int) bool {
		a, b := remotes[i].Config().Name, remotes[j].Config().Name
		if (a == "origin") != (b == "origin") {
			return a == "origin"
		}
		return a < b
	})

	urls := remotes[0].Config().URLs
	if len(urls) == 0 {
		return UnknownOwner, true, nil
	}
	return OwnerFromURL(urls[0]), true, nil
}

// OwnerFromURL extracts the owner from an https or ssh GitHub URL.
func OwnerFromURL(url string) string {
	m := githubOwnerRegex.FindStringSubmatch(url)
	if m == nil {
		return UnknownOwner
	}
	return m[1]
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return ref.Name().Short(), nil
}

// Blame attributes each line of path inside w to the commit that last
// changed it, as of HEAD.
func (r *Repository) Blame(ctx context.Context, path string, w linediff.Window) ([]BlameLine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load HEAD commit: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = NormalizePath(path)
	result, err := git.Blame(c, path)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}

	var lines []BlameLine
	for i, l := range result.Lines {
		n := i + 1
		if n > w.End {
			break
		}
		if !w.Contains(n) {
			continue
		}
		lines = append(lines, BlameLine{
			LineNumber:  n,
			CommitSHA:   l.Hash.String(),
			Author:      l.AuthorName,
			AuthorEmail: l.Author,
			Date:        l.Date,
			Content:     l.Text,
		})
	}
	return lines, nil
}
