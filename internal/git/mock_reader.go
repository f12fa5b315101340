package git

import "context"

// MockEngine is a test double for Engine.
// It serves predefined commits, patches and file contents without a repository.
type MockEngine struct {
	Commits  []CommitInfo
	Patches  map[string]*FilePatch // keyed by commit SHA
	Contents map[string][]byte     // keyed by revision
	Error    error

	LogCalls int
}

// NewMockEngine creates a MockEngine with the given commits.
func NewMockEngine(commits ...CommitInfo) *MockEngine {
	return &MockEngine{
		Commits:  commits,
		Patches:  make(map[string]*FilePatch),
		Contents: make(map[string][]byte),
	}
}

// Log returns the predefined commits or error.
func (m *MockEngine) Log(_ context.Context, _ LogOptions) ([]CommitInfo, error) {
	m.LogCalls++
	return m.Commits, m.Error
}

// Patch returns the predefined patch for commit.
func (m *MockEngine) Patch(_ context.Context, _ string, commit CommitInfo, _ string) (*FilePatch, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if p, ok := m.Patches[commit.SHA]; ok {
		return p, nil
	}
	return &FilePatch{}, nil
}

// Show returns the predefined content for revision.
func (m *MockEngine) Show(_ context.Context, _, revision, _ string) ([]byte, error) {
	return m.Contents[revision], m.Error
}
