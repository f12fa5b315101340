package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// CIChangesWriter writes change history reports as NDJSON (one JSON object
// per line) for CI pipelines.
type CIChangesWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type         string `json:"type"`
	File         string `json:"file"`
	StartLine    int    `json:"startLine"`
	EndLine      int    `json:"endLine"`
	TotalCommits int    `json:"totalCommits"`
	BugfixCount  int    `json:"bugfixCount"`
	Authors      int    `json:"authors"`
}

// CICommitEntry represents a single commit in CI output.
type CICommitEntry struct {
	Type         string `json:"type"`
	CommitSHA    string `json:"commitSha"`
	Author       string `json:"author"`
	Date         string `json:"date"`
	Subject      string `json:"subject"`
	Bugfix       bool   `json:"bugfix"`
	AddedLines   int    `json:"addedLines"`
	DeletedLines int    `json:"deletedLines"`
}

// Write outputs the change history report as NDJSON.
func (w *CIChangesWriter) Write(report *ChangesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	authors := make(map[string]struct{})
	var bugfixes int
	for _, item := range items {
		authors[item.Author] = struct{}{}
		if item.Bugfix {
			bugfixes++
		}
	}

	summary := CISummary{
		Type:         "summary",
		File:         report.FilePath,
		StartLine:    report.Window.Start,
		EndLine:      report.Window.End,
		TotalCommits: len(items),
		BugfixCount:  bugfixes,
		Authors:      len(authors),
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, item := range items {
		entry := CICommitEntry{
			Type:      "commit",
			CommitSHA: item.CommitID,
			Author:    item.Author,
			Date:      item.Timestamp.Format(time.RFC3339),
			Subject:   subject(item.Message),
			Bugfix:    item.Bugfix,
		}
		for _, line := range item.ChangedLines {
			if len(line.Content) > 0 && line.Content[0] == '-' {
				entry.DeletedLines++
			} else {
				entry.AddedLines++
			}
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal NDJSON line: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
