package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// GoGitEngine reads history in process with go-git.
type GoGitEngine struct {
	mu    sync.Mutex
	repos map[string]*git.Repository
}

// NewGoGitEngine creates a GoGitEngine.
func NewGoGitEngine() *GoGitEngine {
	return &GoGitEngine{repos: make(map[string]*git.Repository)}
}

func (e *GoGitEngine) open(repoPath string) (*git.Repository, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if repo, ok := e.repos[repoPath]; ok {
		return repo, nil
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("repository %s: %w", repoPath, history.ErrNotFound)
		}
		return nil, err
	}
	e.repos[repoPath] = repo
	return repo, nil
}

// Log implements Engine by walking first parents from the branch tip and
// keeping commits whose blob for the path differs from their parent's.
func (e *GoGitEngine) Log(ctx context.Context, opts LogOptions) ([]CommitInfo, error) {
	repo, err := e.open(opts.RepoPath)
	if err != nil {
		return nil, err
	}
	tip, err := resolveTip(repo, opts.Branch)
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(tip)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", tip, err)
	}

	path := NormalizePath(opts.Path)
	var results []CommitInfo

	for c != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var parent *object.Commit
		if c.NumParents() > 0 {
			if parent, err = c.Parent(0); err != nil {
				return nil, fmt.Errorf("load parent of %s: %w", c.Hash, err)
			}
		}

		if opts.Since.IsZero() || c.Committer.When.After(opts.Since) {
			changed, err := touches(c, parent, path)
			if err != nil {
				return nil, err
			}
			if changed {
				results = append(results, commitInfo(c))
			}
		}
		c = parent
	}

	return results, nil
}

// Patch implements Engine.
func (e *GoGitEngine) Patch(ctx context.Context, repoPath string, commit CommitInfo, path string) (*FilePatch, error) {
	repo, err := e.open(repoPath)
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(plumbing.NewHash(commit.SHA))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", commit.SHA, history.ErrNotFound)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("load parent of %s: %w", c.Hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeContext(ctx, parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("diff tree of %s: %w", c.Hash, err)
	}

	path = NormalizePath(path)
	for _, change := range changes {
		if change.From.Name != path && change.To.Name != path {
			continue
		}

		action, err := change.Action()
		if err != nil {
			return nil, err
		}
		patch, err := change.PatchContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("patch %s at %s: %w", path, c.Hash, err)
		}
		for _, fp := range patch.FilePatches() {
			if fp.IsBinary() {
				return nil, fmt.Errorf("%s at %s: %w", path, c.Hash, ErrBinaryFile)
			}
		}

		var buf bytes.Buffer
		if err := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(patch); err != nil {
			return nil, fmt.Errorf("encode patch %s at %s: %w", path, c.Hash, err)
		}
		text, err := selectFilePatch(buf.Bytes(), path)
		if err != nil {
			return nil, fmt.Errorf("%s at %s: %w", path, c.Hash, err)
		}

		return &FilePatch{Path: path, Kind: kindFromAction(action), Patch: text}, nil
	}

	return nil, fmt.Errorf("%s unchanged in %s: %w", path, c.Hash, history.ErrNotFound)
}

// Show implements Engine.
func (e *GoGitEngine) Show(_ context.Context, repoPath, revision, path string) ([]byte, error) {
	repo, err := e.open(repoPath)
	if err != nil {
		return nil, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("revision %s: %w", revision, history.ErrNotFound)
	}
	c, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", revision, history.ErrNotFound)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	f, err := tree.File(NormalizePath(path))
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", path, revision, history.ErrNotFound)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func resolveTip(repo *git.Repository, branch string) (plumbing.Hash, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" || strings.EqualFold(branch, "HEAD") {
		ref, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
		}
		return ref.Hash(), nil
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(branch))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("branch %s: %w", branch, history.ErrNotFound)
	}
	return *hash, nil
}

// touches reports whether c changed path relative to parent.
func touches(c, parent *object.Commit, path string) (bool, error) {
	current, ok, err := blobHash(c, path)
	if err != nil {
		return false, err
	}
	if parent == nil {
		return ok, nil
	}
	previous, prevOK, err := blobHash(parent, path)
	if err != nil {
		return false, err
	}
	if ok != prevOK {
		return true, nil
	}
	return ok && current != previous, nil
}

func blobHash(c *object.Commit, path string) (plumbing.Hash, bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("tree of %s: %w", c.Hash, err)
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return f.Hash, true, nil
}

func commitInfo(c *object.Commit) CommitInfo {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	return CommitInfo{
		SHA:     c.Hash.String(),
		Parents: parents,
		When:    c.Committer.When,
		Author:  AuthorInfo{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Message: firstLine(c.Message),
	}
}

func kindFromAction(action merkletrie.Action) ChangeKind {
	switch action {
	case merkletrie.Insert:
		return ChangeKindAdded
	case merkletrie.Delete:
		return ChangeKindDeleted
	default:
		return ChangeKindModified
	}
}
