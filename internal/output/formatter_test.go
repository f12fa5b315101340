package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewChangesReportWriter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		check  func(ChangesReportWriter) bool
	}{
		{FormatConsole, func(w ChangesReportWriter) bool { _, ok := w.(*ConsoleChangesWriter); return ok }},
		{FormatJSON, func(w ChangesReportWriter) bool { _, ok := w.(*JSONChangesWriter); return ok }},
		{FormatCSV, func(w ChangesReportWriter) bool { _, ok := w.(*CSVChangesWriter); return ok }},
		{FormatMarkdown, func(w ChangesReportWriter) bool { _, ok := w.(*MarkdownChangesWriter); return ok }},
		{FormatCI, func(w ChangesReportWriter) bool { _, ok := w.(*CIChangesWriter); return ok }},
		{"unknown", func(w ChangesReportWriter) bool { _, ok := w.(*ConsoleChangesWriter); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if w := NewChangesReportWriter(tt.format); !tt.check(w) {
				t.Errorf("NewChangesReportWriter(%q) returned %T", tt.format, w)
			}
		})
	}
}

func TestNewBlameReportWriter(t *testing.T) {
	if _, ok := NewBlameReportWriter(FormatCI).(*JSONBlameWriter); !ok {
		t.Error("CI blame should fall back to JSON")
	}
	if _, ok := NewBlameReportWriter("").(*ConsoleBlameWriter); !ok {
		t.Error("empty format should default to console")
	}
}

func TestConsoleChangesWriter(t *testing.T) {
	buf := captureStdout(t)

	if err := (&ConsoleChangesWriter{}).Write(sampleChangesReport(), OutputOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"File: src/app.go lines 10-12",
		"Since: 2024-01-01",
		"Total commits: 2",
		"Lines rewritten by bugfixes: 10 (1), 11 (1)",
		"01234567  2024-03-02  alice  fix: handle nil user  [bugfix]",
		`+return "100%"`,
		"-return u.Name",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "long body") {
		t.Error("console output should show the subject only")
	}
}

func TestConsoleChangesWriter_Top(t *testing.T) {
	buf := captureStdout(t)

	if err := (&ConsoleChangesWriter{}).Write(sampleChangesReport(), OutputOptions{Top: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "fedcba98") {
		t.Error("Top=1 should print only the newest commit")
	}
}

func TestJSONChangesWriter(t *testing.T) {
	buf := captureStdout(t)

	if err := (&JSONChangesWriter{}).Write(sampleChangesReport(), OutputOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got JSONChangesReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.TotalCommits != 2 || len(got.Items) != 2 {
		t.Fatalf("TotalCommits = %d, items = %d", got.TotalCommits, len(got.Items))
	}
	if len(got.BugfixLines) != 2 || got.BugfixLines[0].LineNumber != 10 {
		t.Errorf("BugfixLines = %v", got.BugfixLines)
	}
	if got.Since == nil || *got.Since != "2024-01-01T00:00:00Z" {
		t.Errorf("Since = %v", got.Since)
	}
	first := got.Items[0]
	if !first.Bugfix || first.CommitSHA != "0123456789abcdef" {
		t.Errorf("first item = %+v", first)
	}
	if len(first.ChangedLines) != 3 || first.ChangedLines[0].Content != "-return u.Name" {
		t.Errorf("changed lines = %+v", first.ChangedLines)
	}
}

func TestJSONChangesWriter_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := (&JSONChangesWriter{}).Write(sampleChangesReport(), OutputOptions{OutputPath: path}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("file content is not valid JSON")
	}
}

func TestCSVChangesWriter(t *testing.T) {
	buf := captureStdout(t)

	if err := (&CSVChangesWriter{}).Write(sampleChangesReport(), OutputOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 line rows, got %d", len(rows))
	}
	if rows[1][6] != "delete" || rows[1][7] != "return u.Name" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[1][3] != "true" || rows[4][3] != "false" {
		t.Errorf("bugfix flags = %q, %q", rows[1][3], rows[4][3])
	}
}

func TestMarkdownChangesWriter(t *testing.T) {
	buf := captureStdout(t)

	if err := (&MarkdownChangesWriter{}).Write(sampleChangesReport(), OutputOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Line Change History",
		"| 1 | `01234567` | 2024-03-02 | alice | " + bugfixMarker + " fix: handle nil user | 3 |",
		`add user\_name \| helper`,
		"```diff\n-return u.Name\n+if u == nil {\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCIChangesWriter(t *testing.T) {
	buf := captureStdout(t)

	if err := (&CIChangesWriter{}).Write(sampleChangesReport(), OutputOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(lines))
	}

	var summary CISummary
	if err := json.Unmarshal([]byte(lines[0]), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Type != "summary" || summary.TotalCommits != 2 || summary.BugfixCount != 1 || summary.Authors != 2 {
		t.Errorf("summary = %+v", summary)
	}

	var entry CICommitEntry
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.AddedLines != 2 || entry.DeletedLines != 1 || entry.Subject != "fix: handle nil user" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestBlameWriters(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		buf := captureStdout(t)
		if err := (&ConsoleBlameWriter{}).Write(sampleBlameReport(), OutputOptions{}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "fedcba98") || !strings.Contains(buf.String(), "package main") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		buf := captureStdout(t)
		if err := (&JSONBlameWriter{}).Write(sampleBlameReport(), OutputOptions{}); err != nil {
			t.Fatal(err)
		}
		var got JSONBlameReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Lines) != 2 || got.Lines[1].AuthorEmail != "bob@example.com" {
			t.Errorf("lines = %+v", got.Lines)
		}
	})

	t.Run("csv", func(t *testing.T) {
		buf := captureStdout(t)
		if err := (&CSVBlameWriter{}).Write(sampleBlameReport(), OutputOptions{}); err != nil {
			t.Fatal(err)
		}
		rows, err := csv.NewReader(buf).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 3 || rows[2][5] != "a | b" {
			t.Errorf("rows = %v", rows)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		buf := captureStdout(t)
		if err := (&MarkdownBlameWriter{}).Write(sampleBlameReport(), OutputOptions{}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "`a \\| b`") {
			t.Errorf("pipe in content should be escaped:\n%s", buf.String())
		}
	})
}
