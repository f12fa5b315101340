package history

import (
	"context"
	"fmt"
	"sync"
)

// MockSource is a test double for Source.
// It serves predefined commits, diffs and file snapshots without a back-end.
type MockSource struct {
	Provider string
	Commits  []CommitRef
	ListErr  error
	Diffs    map[string]*DiffRepresentation // keyed by commit ID
	DiffErrs map[string]error               // keyed by commit ID
	Contents map[string][]byte              // keyed by revision

	// OnResolve, when set, runs before each ResolveDiff call.
	OnResolve func(ctx context.Context, commit CommitRef)

	mu            sync.Mutex
	contentCalls  []string
	resolvedCalls []string
}

// NewMockSource creates a MockSource that lists the given commits.
func NewMockSource(commits ...CommitRef) *MockSource {
	return &MockSource{
		Provider: "mock",
		Commits:  commits,
		Diffs:    make(map[string]*DiffRepresentation),
		DiffErrs: make(map[string]error),
		Contents: make(map[string][]byte),
	}
}

// Name returns the configured provider tag.
func (m *MockSource) Name() string {
	return m.Provider
}

// ListCommits returns the predefined commits or error.
func (m *MockSource) ListCommits(_ context.Context, _ Request) ([]CommitRef, error) {
	return m.Commits, m.ListErr
}

// ResolveDiff returns the predefined representation for commit.
func (m *MockSource) ResolveDiff(ctx context.Context, _ Request, commit CommitRef) (*DiffRepresentation, error) {
	if m.OnResolve != nil {
		m.OnResolve(ctx, commit)
	}
	m.mu.Lock()
	m.resolvedCalls = append(m.resolvedCalls, commit.ID)
	m.mu.Unlock()

	if err, ok := m.DiffErrs[commit.ID]; ok {
		return nil, err
	}
	rep, ok := m.Diffs[commit.ID]
	if !ok {
		return nil, fmt.Errorf("diff for %s: %w", commit.ID, ErrNotFound)
	}
	return rep, nil
}

// FetchContent returns the predefined snapshot for revision.
func (m *MockSource) FetchContent(_ context.Context, _ Request, revision string) ([]byte, error) {
	m.mu.Lock()
	m.contentCalls = append(m.contentCalls, revision)
	m.mu.Unlock()

	content, ok := m.Contents[revision]
	if !ok {
		return nil, fmt.Errorf("revision %s: %w", revision, ErrNotFound)
	}
	return content, nil
}

// ContentCalls returns the revisions requested through FetchContent.
func (m *MockSource) ContentCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.contentCalls...)
}

// ResolvedCalls returns the commit IDs passed to ResolveDiff.
func (m *MockSource) ResolvedCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolvedCalls...)
}
