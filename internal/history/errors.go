package history

import (
	"errors"

	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// Sentinel errors shared by the aggregator and back-ends.
var (
	// ErrNotFound indicates a repository, commit or file is absent.
	ErrNotFound = errors.New("not found")
	// ErrEmptyContent indicates a zero-length file snapshot.
	ErrEmptyContent = errors.New("empty file content")
	// ErrNoIntersectingChange indicates a commit changed nothing inside the window.
	ErrNoIntersectingChange = errors.New("no changed lines in window")
	// ErrExcludedPath indicates the file matches a configured exclude pattern.
	ErrExcludedPath = errors.New("path is excluded from history lookup")
	// ErrInvalidWindow indicates an empty or non 1-based line window.
	ErrInvalidWindow = linediff.ErrInvalidWindow
)

// skipReason maps a per-commit failure to a short label used in logs and metrics.
func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNoIntersectingChange):
		return "no_intersecting_change"
	case errors.Is(err, ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
