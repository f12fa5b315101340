package output

import (
	"time"

	"github.com/masmgr/gitwho2blame-go/internal/bugfix"
	"github.com/masmgr/gitwho2blame-go/internal/git"
	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// Compile-time interface conformance checks.
var (
	_ ChangesReportWriter = (*ConsoleChangesWriter)(nil)
	_ ChangesReportWriter = (*JSONChangesWriter)(nil)
	_ ChangesReportWriter = (*CSVChangesWriter)(nil)
	_ ChangesReportWriter = (*MarkdownChangesWriter)(nil)
	_ ChangesReportWriter = (*CIChangesWriter)(nil)

	_ BlameReportWriter = (*ConsoleBlameWriter)(nil)
	_ BlameReportWriter = (*JSONBlameWriter)(nil)
	_ BlameReportWriter = (*CSVBlameWriter)(nil)
	_ BlameReportWriter = (*MarkdownBlameWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// ChangesReport holds the commits that touched a line window.
type ChangesReport struct {
	Provider    string
	RepoName    string
	FilePath    string
	Window      linediff.Window
	Since       time.Time
	GeneratedAt time.Time
	Items       []ChangeItem
	// BugfixLines counts the bugfix commits that wrote each window line.
	BugfixLines []bugfix.LineCount
}

// ChangeItem is one commit of a ChangesReport.
type ChangeItem struct {
	history.CodeChangeSummary
	Bugfix bool
}

// BlameReport holds the last change of each line in a window.
type BlameReport struct {
	RepoPath    string
	FilePath    string
	Window      linediff.Window
	GeneratedAt time.Time
	Lines       []git.BlameLine
}

// ChangesReportWriter writes change history reports.
type ChangesReportWriter interface {
	Write(report *ChangesReport, options OutputOptions) error
}

// BlameReportWriter writes blame reports.
type BlameReportWriter interface {
	Write(report *BlameReport, options OutputOptions) error
}

// NewChangesReportWriter creates a report writer for the specified format.
func NewChangesReportWriter(format OutputFormat) ChangesReportWriter {
	switch format {
	case FormatJSON:
		return &JSONChangesWriter{}
	case FormatCSV:
		return &CSVChangesWriter{}
	case FormatMarkdown:
		return &MarkdownChangesWriter{}
	case FormatCI:
		return &CIChangesWriter{}
	default:
		return &ConsoleChangesWriter{}
	}
}

// NewBlameReportWriter creates a blame report writer for the specified
// format. The CI format has no blame variant and falls back to JSON.
func NewBlameReportWriter(format OutputFormat) BlameReportWriter {
	switch format {
	case FormatJSON, FormatCI:
		return &JSONBlameWriter{}
	case FormatCSV:
		return &CSVBlameWriter{}
	case FormatMarkdown:
		return &MarkdownBlameWriter{}
	default:
		return &ConsoleBlameWriter{}
	}
}
