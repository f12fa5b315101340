package output

import (
	"encoding/json"
	"time"

	"github.com/masmgr/gitwho2blame-go/internal/bugfix"
)

// JSONChangesWriter writes change history reports as JSON.
type JSONChangesWriter struct{}

// JSONChangesReport is the JSON output structure for a change history.
type JSONChangesReport struct {
	Provider     string             `json:"provider"`
	Repo         string             `json:"repo"`
	File         string             `json:"file"`
	StartLine    int                `json:"startLine"`
	EndLine      int                `json:"endLine"`
	Since        *string            `json:"since,omitempty"`
	GeneratedAt  string             `json:"generatedAt"`
	TotalCommits int                `json:"totalCommits"`
	BugfixLines  []bugfix.LineCount `json:"bugfixLines,omitempty"`
	Items        []JSONChangeItem   `json:"items"`
}

// JSONChangeItem is one commit in JSON format.
type JSONChangeItem struct {
	CommitSHA    string         `json:"commitSha"`
	Author       string         `json:"author"`
	Message      string         `json:"message"`
	Date         string         `json:"date"`
	Bugfix       bool           `json:"bugfix"`
	ChangedLines []JSONCodeLine `json:"changedLines"`
}

// JSONCodeLine is one changed line in JSON format.
type JSONCodeLine struct {
	LineNumber int    `json:"lineNumber"`
	Content    string `json:"content"`
}

// Write outputs the change history report as JSON.
func (w *JSONChangesWriter) Write(report *ChangesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	jsonItems := make([]JSONChangeItem, len(items))
	for i, item := range items {
		lines := make([]JSONCodeLine, len(item.ChangedLines))
		for j, l := range item.ChangedLines {
			lines[j] = JSONCodeLine{LineNumber: l.LineNumber, Content: l.Content}
		}
		jsonItems[i] = JSONChangeItem{
			CommitSHA:    item.CommitID,
			Author:       item.Author,
			Message:      item.Message,
			Date:         item.Timestamp.Format(time.RFC3339),
			Bugfix:       item.Bugfix,
			ChangedLines: lines,
		}
	}

	var since *string
	if !report.Since.IsZero() {
		formatted := report.Since.Format(time.RFC3339)
		since = &formatted
	}

	return writeJSON(JSONChangesReport{
		Provider:     report.Provider,
		Repo:         report.RepoName,
		File:         report.FilePath,
		StartLine:    report.Window.Start,
		EndLine:      report.Window.End,
		Since:        since,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		TotalCommits: len(report.Items),
		BugfixLines:  report.BugfixLines,
		Items:        jsonItems,
	}, options.OutputPath)
}

// JSONBlameWriter writes blame reports as JSON.
type JSONBlameWriter struct{}

// JSONBlameReport is the JSON output structure for a blame report.
type JSONBlameReport struct {
	Repo        string          `json:"repo"`
	File        string          `json:"file"`
	StartLine   int             `json:"startLine"`
	EndLine     int             `json:"endLine"`
	GeneratedAt string          `json:"generatedAt"`
	Lines       []JSONBlameLine `json:"lines"`
}

// JSONBlameLine is one blamed line in JSON format.
type JSONBlameLine struct {
	LineNumber  int    `json:"lineNumber"`
	CommitSHA   string `json:"commitSha"`
	Author      string `json:"author"`
	AuthorEmail string `json:"authorEmail"`
	Date        string `json:"date"`
	Content     string `json:"content"`
}

// Write outputs the blame report as JSON.
func (w *JSONBlameWriter) Write(report *BlameReport, options OutputOptions) error {
	lines := make([]JSONBlameLine, len(report.Lines))
	for i, l := range report.Lines {
		lines[i] = JSONBlameLine{
			LineNumber:  l.LineNumber,
			CommitSHA:   l.CommitSHA,
			Author:      l.Author,
			AuthorEmail: l.AuthorEmail,
			Date:        l.Date.Format(time.RFC3339),
			Content:     l.Content,
		}
	}

	return writeJSON(JSONBlameReport{
		Repo:        report.RepoPath,
		File:        report.FilePath,
		StartLine:   report.Window.Start,
		EndLine:     report.Window.End,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Lines:       lines,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
