package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var fixtureEpoch = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// fixtureRepo builds a repository commit by commit with a deterministic clock.
type fixtureRepo struct {
	t     *testing.T
	dir   string
	repo  *git.Repository
	wt    *git.Worktree
	clock time.Time
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &fixtureRepo{t: t, dir: dir, repo: repo, wt: wt, clock: fixtureEpoch}
}

// commit writes files, removes the listed paths and commits one day after
// the previous commit. It returns the commit SHA.
func (f *fixtureRepo) commit(author, msg string, files map[string]string, remove ...string) string {
	f.t.Helper()
	for path, content := range files {
		full := filepath.Join(f.dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			f.t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			f.t.Fatal(err)
		}
		if _, err := f.wt.Add(path); err != nil {
			f.t.Fatalf("add %s: %v", path, err)
		}
	}
	for _, path := range remove {
		if _, err := f.wt.Remove(path); err != nil {
			f.t.Fatalf("remove %s: %v", path, err)
		}
	}

	f.clock = f.clock.Add(24 * time.Hour)
	sig := &object.Signature{Name: author, Email: author + "@example.com", When: f.clock}
	hash, err := f.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		f.t.Fatalf("commit %q: %v", msg, err)
	}
	return hash.String()
}

// standardHistory creates:
//
//	c1 alice: add app.txt (5 lines) and notes.md
//	c2 bob:   edit app.txt line 2
//	c3 carol: edit notes.md only
//	c4 dave:  delete app.txt line 4, append line 6
func standardHistory(t *testing.T) (*fixtureRepo, []string) {
	f := newFixtureRepo(t)
	c1 := f.commit("alice", "add app\n\nlong body", map[string]string{
		"src/app.txt": "one\ntwo\nthree\nfour\nfive\n",
		"notes.md":    "notes\n",
	})
	c2 := f.commit("bob", "edit two", map[string]string{
		"src/app.txt": "one\nTWO\nthree\nfour\nfive\n",
	})
	c3 := f.commit("carol", "notes only", map[string]string{
		"notes.md": "notes\nmore\n",
	})
	c4 := f.commit("dave", "drop four, add six", map[string]string{
		"src/app.txt": "one\nTWO\nthree\nfive\nsix\n",
	})
	return f, []string{c1, c2, c3, c4}
}
