package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// CLIEngine reads history by running the git executable.
type CLIEngine struct {
	binary string
}

// NewCLIEngine creates a CLIEngine. An empty binary means "git" on PATH.
func NewCLIEngine(binary string) *CLIEngine {
	if binary == "" {
		binary = "git"
	}
	return &CLIEngine{binary: binary}
}

type gitRawEntry struct {
	srcMode gitFileMode
	dstMode gitFileMode
	status  string // e.g. "M", "A", "D", "R100"
	path    string // destination path (or path for non-renames)
	oldPath string // source path for renames
}

const (
	// emptyTreeSHA is the well-known hash of the empty tree, used as the
	// parent of root commits.
	emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

	// Each commit starts with 0x1e (record separator) followed by NUL
	// separated header fields. The --raw -z entries for the path follow.
	cliLogFormat    = "%x1e%H%x00%P%x00%cI%x00%an%x00%ae%x00%aI%x00%s%x00"
	cliHeaderFields = 7
)

// Log implements Engine.
func (e *CLIEngine) Log(ctx context.Context, opts LogOptions) ([]CommitInfo, error) {
	path := NormalizePath(opts.Path)
	args := []string{
		"-C", opts.RepoPath,
		"log",
		"--no-color",
		"--first-parent",
		"--no-renames",
		"--pretty=format:" + cliLogFormat,
		"--raw", "-z",
	}
	if !opts.Since.IsZero() {
		args = append(args, fmt.Sprintf("--since=@%d", opts.Since.Unix()))
	}
	if rev := strings.TrimSpace(opts.Branch); rev != "" && !strings.EqualFold(rev, "HEAD") {
		args = append(args, rev)
	}
	args = append(args, "--", path)

	out, err := e.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseCLILog(out, path, opts.Since)
}

func parseCLILog(out []byte, path string, since time.Time) ([]CommitInfo, error) {
	var results []CommitInfo

	for _, rec := range bytes.Split(out, []byte{0x1e}) {
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}

		fields := bytes.SplitN(rec, []byte{0x00}, cliHeaderFields+1)
		if len(fields) < cliHeaderFields {
			return nil, fmt.Errorf("unexpected git log header format")
		}

		when, err := time.Parse(time.RFC3339, string(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("parse committer date: %w", err)
		}
		if !since.IsZero() && !when.After(since) {
			continue
		}
		authored, err := time.Parse(time.RFC3339, string(fields[5]))
		if err != nil {
			return nil, fmt.Errorf("parse author date: %w", err)
		}

		var body []byte
		if len(fields) > cliHeaderFields {
			body = fields[cliHeaderFields]
		}
		entries, _, err := parseGitRawEntries(body)
		if err != nil {
			return nil, err
		}
		if !touchesFile(entries, path) {
			continue
		}

		results = append(results, CommitInfo{
			SHA:     string(fields[0]),
			Parents: strings.Fields(string(fields[1])),
			When:    when,
			Author:  AuthorInfo{Name: string(fields[3]), Email: string(fields[4]), When: authored},
			Message: string(fields[6]),
		})
	}

	return results, nil
}

func touchesFile(entries []gitRawEntry, path string) bool {
	for _, e := range entries {
		if e.path != path && e.oldPath != path {
			continue
		}
		if e.srcMode.IsFile() || e.dstMode.IsFile() {
			return true
		}
	}
	return false
}

// Patch implements Engine.
func (e *CLIEngine) Patch(ctx context.Context, repoPath string, commit CommitInfo, path string) (*FilePatch, error) {
	path = NormalizePath(path)

	parent := commit.ParentSHA()
	if parent == "" {
		parent = emptyTreeSHA
	}

	out, err := e.run(ctx, "-C", repoPath, "diff", "--no-color", "--no-ext-diff", "--no-renames", parent, commit.SHA, "--", path)
	if err != nil {
		return nil, err
	}
	fd, err := findFileDiff(out, path)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", path, commit.SHA, err)
	}
	text, err := renderHunks(fd)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", path, commit.SHA, err)
	}

	kind := ChangeKindModified
	switch {
	case addedInDiff(fd):
		kind = ChangeKindAdded
	case fd.NewName == "/dev/null":
		kind = ChangeKindDeleted
	}
	return &FilePatch{Path: path, Kind: kind, Patch: text}, nil
}

// Show implements Engine.
func (e *CLIEngine) Show(ctx context.Context, repoPath, revision, path string) ([]byte, error) {
	out, err := e.run(ctx, "-C", repoPath, "cat-file", "blob", revision+":"+NormalizePath(path))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s at %s: %w", path, revision, history.ErrNotFound)
		}
		return nil, err
	}
	return out, nil
}

func (e *CLIEngine) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, e.binary, args...).Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git %s failed: %w: %s", args[2], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git %s failed: %w", args[2], err)
	}
	return out, nil
}

func parseGitRawEntries(body []byte) ([]gitRawEntry, int, error) {
	i := skipSeparators(body, 0)

	entries := make([]gitRawEntry, 0, 4)

	for i < len(body) && body[i] == ':' {
		meta, ok := readUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing NUL)")
		}

		fields := strings.Fields(string(meta))
		if len(fields) < 5 {
			return nil, 0, fmt.Errorf("unexpected git --raw meta: %q", string(meta))
		}

		srcMode, err := parseGitFileMode(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			return nil, 0, err
		}
		dstMode, err := parseGitFileMode(fields[1])
		if err != nil {
			return nil, 0, err
		}

		status := fields[len(fields)-1]

		path1, ok := readStringUntilNUL(body, &i)
		if !ok {
			return nil, 0, fmt.Errorf("unexpected git --raw format (missing path)")
		}

		path := path1
		oldPath := ""
		if len(status) > 0 && (status[0] == 'R' || status[0] == 'C') {
			path2, ok := readStringUntilNUL(body, &i)
			if !ok {
				return nil, 0, fmt.Errorf("unexpected git --raw format (missing rename path)")
			}
			oldPath = path1
			path = path2
		}

		entries = append(entries, gitRawEntry{
			srcMode: srcMode,
			dstMode: dstMode,
			status:  status,
			path:    path,
			oldPath: oldPath,
		})

		i = skipSeparators(body, i)
	}

	return entries, i, nil
}

// skipSeparators advances past newlines and NULs git emits between the
// header and the --raw section, which vary with -z and the git version.
func skipSeparators(b []byte, i int) int {
	for i < len(b) && (b[i] == '\n' || b[i] == '\r' || b[i] == 0) {
		i++
	}
	return i
}

func readUntilNUL(b []byte, i *int) ([]byte, bool) {
	if *i >= len(b) {
		return nil, false
	}
	j := bytes.IndexByte(b[*i:], 0)
	if j == -1 {
		return nil, false
	}
	start := *i
	end := *i + j
	*i = end + 1
	return b[start:end], true
}

func readStringUntilNUL(b []byte, i *int) (string, bool) {
	raw, ok := readUntilNUL(b, i)
	if !ok {
		return "", false
	}
	return string(raw), true
}
