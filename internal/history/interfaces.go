package history

import (
	"context"
	"time"
)

// Source is the capability set a back-end exposes to the Aggregator.
type Source interface {
	// Name returns the lower-case provider tag.
	Name() string
	// ListCommits returns the commits that touched the request's file since
	// the request's date. It returns ErrNotFound when the repository does not
	// resolve.
	ListCommits(ctx context.Context, req Request) ([]CommitRef, error)
	// ResolveDiff describes how commit changed the request's file.
	ResolveDiff(ctx context.Context, req Request, commit CommitRef) (*DiffRepresentation, error)
	// FetchContent returns the full file content at revision.
	FetchContent(ctx context.Context, req Request, revision string) ([]byte, error)
}

// Provider answers line-scoped history questions for one back-end.
type Provider interface {
	GetCodeChanges(
		ctx context.Context,
		relativeFilePath, repoRootPath, repoName, owner, branchName string,
		startLine, endLine int,
		since time.Time,
	) ([]CodeChangeSummary, error)
}

// Recorder receives per-commit outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CommitIncluded(provider string)
	CommitSkipped(provider, reason string)
}

// Compile-time interface conformance checks.
var (
	_ Provider = (*Aggregator)(nil)
	_ Source   = (*MockSource)(nil)
)
