package output

import (
	"fmt"
	"strings"
)

// MarkdownChangesWriter writes change history reports as Markdown.
type MarkdownChangesWriter struct{}

// Write outputs the change history report as Markdown.
func (w *MarkdownChangesWriter) Write(report *ChangesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Line Change History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s (%s)\n\n", escapeMarkdown(report.RepoName), report.Provider)
	fmt.Fprintf(out, "**File:** `%s` lines %s\n\n", report.FilePath, report.Window)
	fmt.Fprintf(out, "**Since:** %s\n\n", sinceLabel(report.Since))
	fmt.Fprintf(out, "**Total Commits:** %d\n\n", len(report.Items))

	fmt.Fprintln(out, "## Commits")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| # | SHA | Date | Author | Message | Lines |")
	fmt.Fprintln(out, "|---|-----|------|--------|---------|-------|")
	for i, item := range items {
		marker := ""
		if item.Bugfix {
			marker = bugfixMarker + " "
		}
		fmt.Fprintf(out, "| %d | `%s` | %s | %s | %s%s | %d |\n",
			i+1,
			shortSHA(item.CommitID),
			item.Timestamp.Format(reportDateLayout),
			escapeMarkdown(item.Author),
			marker,
			escapeMarkdown(truncateMessage(subject(item.Message), 60)),
			len(item.ChangedLines),
		)
	}

	for _, item := range items {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "### `%s` %s\n\n", shortSHA(item.CommitID), escapeMarkdown(subject(item.Message)))
		fmt.Fprintln(out, "```diff")
		for _, line := range item.ChangedLines {
			fmt.Fprintln(out, line.Content)
		}
		fmt.Fprintln(out, "```")
	}

	return nil
}

// MarkdownBlameWriter writes blame reports as Markdown.
type MarkdownBlameWriter struct{}

// Write outputs the blame report as Markdown.
func (w *MarkdownBlameWriter) Write(report *BlameReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Line Blame")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	fmt.Fprintf(out, "**File:** `%s` lines %s\n\n", report.FilePath, report.Window)
	fmt.Fprintln(out, "| Line | SHA | Date | Author | Content |")
	fmt.Fprintln(out, "|------|-----|------|--------|---------|")
	for _, l := range report.Lines {
		fmt.Fprintf(out, "| %d | `%s` | %s | %s | `%s` |\n",
			l.LineNumber,
			shortSHA(l.CommitSHA),
			l.Date.Format(reportDateLayout),
			escapeMarkdown(l.Author),
			strings.ReplaceAll(l.Content, "|", "\\|"),
		)
	}

	return nil
}

const bugfixMarker = "🐞"

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
