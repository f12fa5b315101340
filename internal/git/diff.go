package git

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// findFileDiff parses a multi-file unified diff and returns the entry for path.
func findFileDiff(raw []byte, path string) (*godiff.FileDiff, error) {
	files, err := godiff.ParseMultiFileDiff(raw)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	for _, fd := range files {
		if diffName(fd.NewName) == path || diffName(fd.OrigName) == path {
			return fd, nil
		}
	}
	return nil, fmt.Errorf("no diff entry for %s: %w", path, history.ErrNotFound)
}

// renderHunks re-renders the hunks of fd without file or extended headers.
// It returns ErrBinaryFile for binary entries and "" for entries without
// hunks (for example an empty file being added).
func renderHunks(fd *godiff.FileDiff) (string, error) {
	if isBinaryDiff(fd) {
		return "", ErrBinaryFile
	}
	if len(fd.Hunks) == 0 {
		return "", nil
	}
	out, err := godiff.PrintHunks(fd.Hunks)
	if err != nil {
		return "", fmt.Errorf("print hunks: %w", err)
	}
	return string(out), nil
}

// selectFilePatch renders the hunks of path's entry in raw.
func selectFilePatch(raw []byte, path string) (string, error) {
	fd, err := findFileDiff(raw, path)
	if err != nil {
		return "", err
	}
	return renderHunks(fd)
}

// diffName strips the a/ or b/ prefix git puts on diff paths.
func diffName(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

func isBinaryDiff(fd *godiff.FileDiff) bool {
	for _, ext := range fd.Extended {
		if strings.HasPrefix(ext, "Binary files ") || ext == "GIT binary patch" {
			return true
		}
	}
	return false
}

// addedInDiff reports whether fd creates its file.
func addedInDiff(fd *godiff.FileDiff) bool {
	if fd.OrigName == "/dev/null" {
		return true
	}
	for _, ext := range fd.Extended {
		if strings.HasPrefix(ext, "new file mode ") {
			return true
		}
	}
	return false
}
