package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/masmgr/gitwho2blame-go/internal/bugfix"
	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// captureStdout redirects report output to a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevOut, prevColor := stdout, color.NoColor
	buf := &bytes.Buffer{}
	stdout = buf
	color.NoColor = true
	t.Cleanup(func() {
		stdout = prevOut
		color.NoColor = prevColor
	})
	return buf
}

func sampleChangesReport() *ChangesReport {
	return &ChangesReport{
		Provider:    "local",
		RepoName:    "app",
		FilePath:    "src/app.go",
		Window:      linediff.Window{Start: 10, End: 12},
		Since:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		BugfixLines: []bugfix.LineCount{{LineNumber: 10, Count: 1}, {LineNumber: 11, Count: 1}},
		Items: []ChangeItem{
			{
				CodeChangeSummary: history.CodeChangeSummary{
					CommitID:  "0123456789abcdef",
					Author:    "alice",
					Message:   "fix: handle nil user\n\nlong body",
					Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
					ChangedLines: []linediff.CodeLine{
						linediff.Delete(10, "return u.Name"),
						linediff.Add(10, "if u == nil {"),
						linediff.Add(11, `return "100%"`),
					},
				},
				Bugfix: true,
			},
			{
				CodeChangeSummary: history.CodeChangeSummary{
					CommitID:     "fedcba9876543210",
					Author:       "bob",
					Message:      "add user_name | helper",
					Timestamp:    time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
					ChangedLines: []linediff.CodeLine{linediff.Add(12, "}")},
				},
			},
		},
	}
}

func sampleBlameReport() *BlameReport {
	return &BlameReport{
		RepoPath:    "/src/app",
		FilePath:    "main.go",
		Window:      linediff.Window{Start: 1, End: 2},
		GeneratedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Lines: []git.BlameLine{
			{LineNumber: 1, CommitSHA: "0123456789abcdef", Author: "alice", AuthorEmail: "alice@example.com", Date: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), Content: "package main"},
			{LineNumber: 2, CommitSHA: "fedcba9876543210", Author: "bob", AuthorEmail: "bob@example.com", Date: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), Content: "a | b"},
		},
	}
}
