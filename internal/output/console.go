package output

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// ConsoleChangesWriter writes change history reports to the console.
type ConsoleChangesWriter struct{}

// Write outputs the change history report to the console.
func (w *ConsoleChangesWriter) Write(report *ChangesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, color.GreenString("Line Change History"))
	fmt.Fprintf(out, "Repository: %s (%s)\n", report.RepoName, report.Provider)
	fmt.Fprintf(out, "File: %s lines %s\n", report.FilePath, report.Window)
	fmt.Fprintf(out, "Since: %s\n", sinceLabel(report.Since))
	fmt.Fprintf(out, "Total commits: %d\n", len(report.Items))
	if len(report.BugfixLines) > 0 {
		fmt.Fprintf(out, "Lines rewritten by bugfixes: %s\n", bugfixLinesLabel(report.BugfixLines))
	}

	for _, item := range items {
		fmt.Fprintln(out)
		header := fmt.Sprintf("%s  %s  %s  %s",
			shortSHA(item.CommitID),
			item.Timestamp.Format(reportDateLayout),
			item.Author,
			truncateMessage(subject(item.Message), 60),
		)
		if item.Bugfix {
			fmt.Fprintln(out, color.RedString("%s  [bugfix]", header))
		} else {
			fmt.Fprintln(out, color.YellowString("%s", header))
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, line := range item.ChangedLines {
			fmt.Fprintf(tw, "  %d\t%s\n", line.LineNumber, kindColor(line.Kind)("%s", line.Content))
		}
		tw.Flush()
	}

	return nil
}

// ConsoleBlameWriter writes blame reports to the console.
type ConsoleBlameWriter struct{}

// Write outputs the blame report to the console.
func (w *ConsoleBlameWriter) Write(report *BlameReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, color.GreenString("Line Blame"))
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "File: %s lines %s\n\n", report.FilePath, report.Window)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Line\tSHA\tDate\tAuthor\tContent")
	for _, l := range report.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			l.LineNumber,
			shortSHA(l.CommitSHA),
			l.Date.Format(reportDateLayout),
			l.Author,
			l.Content,
		)
	}
	tw.Flush()

	return nil
}

func kindColor(kind linediff.ChangeKind) func(string, ...interface{}) string {
	switch kind {
	case linediff.ChangeKindAdd:
		return color.GreenString
	case linediff.ChangeKindDelete:
		return color.RedString
	default:
		return fmt.Sprintf
	}
}
