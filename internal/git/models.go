package git

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBinaryFile is returned when a file's change cannot be rendered as text.
var ErrBinaryFile = errors.New("binary file")

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// CommitInfo represents minimal information about a Git commit.
type CommitInfo struct {
	SHA     string
	Parents []string
	When    time.Time // committer date
	Author  AuthorInfo
	Message string // subject line
}

// ParentSHA returns the first parent, or "" for a root commit.
func (c CommitInfo) ParentSHA() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
	When  time.Time
}

// ChangeKind represents the type of change a commit made to a file.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindDeleted
	ChangeKindRenamed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindDeleted:
		return "deleted"
	case ChangeKindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FilePatch is the unified diff of one file in one commit.
type FilePatch struct {
	Path  string
	Kind  ChangeKind
	Patch string
}

// BlameLine attributes one line of a file to the commit that last changed it.
type BlameLine struct {
	LineNumber  int       `json:"lineNumber"`
	CommitSHA   string    `json:"commitSha"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	Date        time.Time `json:"date"`
	Content     string    `json:"content"`
}

// EngineKind selects the implementation used to read local history.
type EngineKind string

const (
	EngineGoGit  EngineKind = "gogit"
	EngineGitCLI EngineKind = "gitcli"
)

// ParseEngineKind validates an engine name. Empty selects go-git.
func ParseEngineKind(s string) (EngineKind, error) {
	switch EngineKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineGoGit:
		return EngineGoGit, nil
	case EngineGitCLI:
		return EngineGitCLI, nil
	default:
		return "", fmt.Errorf("unknown git engine %q (want gogit or gitcli)", s)
	}
}

// NormalizePath converts a user supplied path to the forward-slash,
// root-relative form used in Git trees.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return strings.TrimPrefix(path, "/")
}

// firstLine returns the subject line of a commit message.
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		message = message[:idx]
	}
	return strings.TrimRight(message, "\r ")
}

// LogOptions narrows a file log.
type LogOptions struct {
	RepoPath string
	Branch   string // empty or HEAD follows the checked-out branch
	Path     string // forward-slash path relative to the repository root
	Since    time.Time
}
