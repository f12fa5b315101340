package git

import "context"

// Engine reads file-scoped history from a local repository.
type Engine interface {
	// Log lists the first-parent commits that changed opts.Path and were
	// committed strictly after opts.Since, newest first.
	Log(ctx context.Context, opts LogOptions) ([]CommitInfo, error)
	// Patch returns the diff of path between the commit and its first parent.
	Patch(ctx context.Context, repoPath string, commit CommitInfo, path string) (*FilePatch, error)
	// Show returns the content of path at revision.
	Show(ctx context.Context, repoPath, revision, path string) ([]byte, error)
}

// Compile-time interface conformance checks.
var (
	_ Engine = (*GoGitEngine)(nil)
	_ Engine = (*CLIEngine)(nil)
	_ Engine = (*MockEngine)(nil)
)
