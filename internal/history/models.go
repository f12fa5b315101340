package history

import (
	"time"

	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// CommitRef represents minimal information about a commit.
type CommitRef struct {
	ID        string
	ParentID  string // empty for root commits
	Author    string
	Message   string
	Timestamp time.Time
}

// CodeChangeSummary lists the changed lines a commit contributed to a window.
type CodeChangeSummary struct {
	CommitID     string              `json:"commitSha"`
	Author       string              `json:"author"`
	Message      string              `json:"message"`
	Timestamp    time.Time           `json:"date"`
	ChangedLines []linediff.CodeLine `json:"changedLines"`
}

// Request identifies a file, a line window and a time range to summarize.
type Request struct {
	FilePath string // path relative to the repository root, forward slashes
	RepoRoot string // local checkout path
	RepoName string
	Owner    string
	Branch   string
	Window   linediff.Window
	Since    time.Time
}

// DiffFormat tells the aggregator how a commit's change is represented.
type DiffFormat int

const (
	// FormatPatch is unified-diff text for the file.
	FormatPatch DiffFormat = iota
	// FormatBlocks is a list of line diff blocks plus full file snapshots.
	FormatBlocks
)

// String returns a string representation of the diff format.
func (f DiffFormat) String() string {
	switch f {
	case FormatPatch:
		return "patch"
	case FormatBlocks:
		return "blocks"
	default:
		return "unknown"
	}
}

// DiffRepresentation is a back-end's description of how one commit changed
// the requested file.
type DiffRepresentation struct {
	// Commit optionally replaces the listed commit metadata (for example a
	// full message where the listing truncates it). Zero value keeps the listing.
	Commit CommitRef
	// ParentID is the revision the blocks are computed against.
	ParentID string
	// IsAddition means the file did not exist before this commit; every
	// line of the current content counts as added.
	IsAddition bool
	Format     DiffFormat
	Patch      string
	Blocks     []linediff.LineDiffBlock
}
