package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/masmgr/gitwho2blame-go/internal/cache"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

func TestSource_CodeChangesEndToEnd(t *testing.T) {
	f, ids := standardHistory(t)

	for name, engine := range engines(t) {
		t.Run(name, func(t *testing.T) {
			agg := history.NewAggregator(NewSource(engine, nil, nil), nil)
			summaries, err := agg.CodeChanges(context.Background(), history.Request{
				FilePath: "src/app.txt",
				RepoRoot: f.dir,
				Window:   linediff.Window{Start: 2, End: 2},
			})
			if err != nil {
				t.Fatalf("CodeChanges() error = %v", err)
			}
			if len(summaries) != 2 {
				t.Fatalf("got %d summaries, want 2: %+v", len(summaries), summaries)
			}

			edit := summaries[0]
			if edit.CommitID != ids[1] || edit.Author != "bob" || edit.Message != "edit two" {
				t.Errorf("summaries[0] = %+v", edit)
			}
			if got := lineTexts(edit.ChangedLines); got != "2:-two 2:+TWO" {
				t.Errorf("summaries[0] lines = %s", got)
			}

			root := summaries[1]
			if root.CommitID != ids[0] || root.Message != "add app" {
				t.Errorf("summaries[1] = %+v", root)
			}
			if got := lineTexts(root.ChangedLines); got != "2:+two" {
				t.Errorf("summaries[1] lines = %s", got)
			}
		})
	}
}

func TestSource_DeletedLineInWindow(t *testing.T) {
	f, ids := standardHistory(t)

	agg := history.NewAggregator(NewSource(NewGoGitEngine(), nil, nil), nil)
	summaries, err := agg.CodeChanges(context.Background(), history.Request{
		FilePath: "src/app.txt",
		RepoRoot: f.dir,
		Window:   linediff.Window{Start: 4, End: 5},
	})
	if err != nil {
		t.Fatalf("CodeChanges() error = %v", err)
	}
	if len(summaries) == 0 || summaries[0].CommitID != ids[3] {
		t.Fatalf("newest summary should be %s: %+v", ids[3], summaries)
	}
	if got := lineTexts(summaries[0].ChangedLines); got != "4:-four 5:+six" {
		t.Errorf("lines = %s", got)
	}
}

func TestSource_MissingRepository(t *testing.T) {
	src := NewSource(NewGoGitEngine(), nil, nil)
	_, err := src.ListCommits(context.Background(), history.Request{RepoRoot: t.TempDir(), FilePath: "a.go"})
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("ListCommits() error = %v, want ErrNotFound", err)
	}
}

func TestSource_CachesLog(t *testing.T) {
	f, _ := standardHistory(t)
	engine := NewMockEngine(CommitInfo{SHA: "abc", Parents: []string{"def"}, Author: AuthorInfo{Name: "eve"}})
	src := NewSource(engine, cache.New(cache.NewMemoryStore(0), nil), nil)

	req := history.Request{RepoRoot: f.dir, FilePath: "src/app.txt"}
	for i := 0; i < 2; i++ {
		refs, err := src.ListCommits(context.Background(), req)
		if err != nil {
			t.Fatalf("ListCommits() error = %v", err)
		}
		if len(refs) != 1 || refs[0].ID != "abc" || refs[0].ParentID != "def" || refs[0].Author != "eve" {
			t.Fatalf("ListCommits() = %+v", refs)
		}
	}
	if engine.LogCalls != 1 {
		t.Errorf("engine Log called %d times, want 1", engine.LogCalls)
	}
}

func TestSource_ResolveDiffAdditionWithoutHunks(t *testing.T) {
	f, _ := standardHistory(t)
	engine := NewMockEngine()
	engine.Patches["added"] = &FilePatch{Path: "src/app.txt", Kind: ChangeKindAdded}
	engine.Patches["edited"] = &FilePatch{Path: "src/app.txt", Kind: ChangeKindModified, Patch: "@@ -1 +1 @@\n-a\n+b\n"}
	engine.Patches["created"] = &FilePatch{Path: "src/app.txt", Kind: ChangeKindAdded, Patch: "@@ -0,0 +1 @@\n+a\n"}
	src := NewSource(engine, nil, nil)
	req := history.Request{RepoRoot: f.dir, FilePath: "src/app.txt"}

	tests := []struct {
		commit string
		want   bool
	}{
		{"added", true},
		{"edited", false},
		{"created", false},
	}
	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			rep, err := src.ResolveDiff(context.Background(), req, history.CommitRef{ID: tt.commit, ParentID: "p"})
			if err != nil {
				t.Fatalf("ResolveDiff() error = %v", err)
			}
			if rep.IsAddition != tt.want {
				t.Errorf("IsAddition = %v, want %v", rep.IsAddition, tt.want)
			}
			if rep.Format != history.FormatPatch {
				t.Errorf("Format = %v, want %v", rep.Format, history.FormatPatch)
			}
		})
	}
}

func TestSource_Name(t *testing.T) {
	if got := NewSource(NewMockEngine(), nil, nil).Name(); got != ProviderName {
		t.Errorf("Name() = %q", got)
	}
}

func lineTexts(lines []linediff.CodeLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d:%s", l.LineNumber, l.Content))
	}
	return strings.Join(parts, " ")
}
