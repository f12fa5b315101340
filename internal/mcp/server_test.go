package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/gitwho2blame-go/internal/history"
	"github.com/masmgr/gitwho2blame-go/internal/linediff"
	"github.com/masmgr/gitwho2blame-go/internal/mcp"
)

type providerCall struct {
	path, root, repo, owner, branch string
	start, end                      int
	since                           time.Time
}

type fakeProvider struct {
	mu        sync.Mutex
	calls     []providerCall
	summaries []history.CodeChangeSummary
	err       error
}

func (p *fakeProvider) GetCodeChanges(
	_ context.Context,
	relativeFilePath, repoRootPath, repoName, owner, branchName string,
	startLine, endLine int,
	since time.Time,
) ([]history.CodeChangeSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, providerCall{relativeFilePath, repoRootPath, repoName, owner, branchName, startLine, endLine, since})
	return p.summaries, p.err
}

type toolCall struct {
	tool, status string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []toolCall
}

func (r *fakeRecorder) ToolCall(tool, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, toolCall{tool, status})
}

// initRepo creates a repository with one commit of app.go and, when remote
// is not empty, an origin remote.
func initRepo(t *testing.T, remote string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	if remote != "" {
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remote}})
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.go"), []byte("one\ntwo\nthree\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("app.go")
	require.NoError(t, err)
	_, err = wt.Commit("add app", &git.CommitOptions{Author: &object.Signature{
		Name:  "alice",
		Email: "alice@example.com",
		When:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	return dir
}

func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-serverDone
	})
	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) (*mcpsdk.CallToolResult, string) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	return result, text.Text
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Provider: &fakeProvider{}})
	assert.Equal(t, []string{mcp.ToolNameBlame, mcp.ToolNameCodeChanges}, srv.ListToolNames())

	session := connect(t, srv)
	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)
	for _, tool := range tools.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestServer_CodeChanges(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "git@github.com:acme/app.git")
	provider := &fakeProvider{summaries: []history.CodeChangeSummary{{
		CommitID:     "abc123",
		Author:       "alice",
		Message:      "fix: off by one",
		Timestamp:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ChangedLines: []linediff.CodeLine{linediff.Add(2, "two")},
	}}}
	recorder := &fakeRecorder{}
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: provider, Metrics: recorder}))

	result, text := callTool(t, session, mcp.ToolNameCodeChanges, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     dir,
		"repo_name":          "app",
		"start_line":         1,
		"end_line":           3,
		"since":              "2024-01-01T00:00:00Z",
	})
	require.False(t, result.IsError, text)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "abc123", got[0]["commitSha"])
	assert.Equal(t, "2024-03-01T12:00:00Z", got[0]["date"])
	assert.Equal(t, []any{map[string]any{"lineNumber": float64(2), "content": "+two"}}, got[0]["changedLines"])

	require.Len(t, provider.calls, 1)
	call := provider.calls[0]
	assert.Equal(t, "acme", call.owner)
	assert.Equal(t, "master", call.branch)
	assert.Equal(t, "app", call.repo)
	assert.Equal(t, 1, call.start)
	assert.Equal(t, 3, call.end)
	assert.True(t, call.since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, []toolCall{{mcp.ToolNameCodeChanges, "ok"}}, recorder.calls)
}

func TestServer_CodeChangesDefaultSince(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "https://github.com/acme/app.git")
	provider := &fakeProvider{summaries: []history.CodeChangeSummary{}}
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	session := connect(t, mcp.NewServer(mcp.ServerDeps{
		Provider:  provider,
		SinceDays: 10,
		Now:       func() time.Time { return now },
	}))

	result, text := callTool(t, session, mcp.ToolNameCodeChanges, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     dir,
		"repo_name":          "app",
		"start_line":         1,
		"end_line":           1,
	})
	require.False(t, result.IsError, text)
	assert.Equal(t, "[]", text)
	require.Len(t, provider.calls, 1)
	assert.True(t, provider.calls[0].since.Equal(now.AddDate(0, 0, -10)))
}

func TestServer_CodeChangesWithoutRemoteFails(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "")
	provider := &fakeProvider{}
	recorder := &fakeRecorder{}
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: provider, Metrics: recorder}))

	result, text := callTool(t, session, mcp.ToolNameCodeChanges, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     dir,
		"repo_name":          "app",
		"start_line":         1,
		"end_line":           1,
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, mcp.ErrNoOwner.Error())
	assert.Empty(t, provider.calls)
	assert.Equal(t, []toolCall{{mcp.ToolNameCodeChanges, "error"}}, recorder.calls)
}

func TestServer_CodeChangesRejectsBadInput(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "https://github.com/acme/app.git")
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: &fakeProvider{}}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "inverted window",
			args: map[string]any{"relative_file_path": "app.go", "repo_root_path": dir, "repo_name": "app", "start_line": 5, "end_line": 2},
			want: linediff.ErrInvalidWindow.Error(),
		},
		{
			name: "bad since",
			args: map[string]any{"relative_file_path": "app.go", "repo_root_path": dir, "repo_name": "app", "start_line": 1, "end_line": 2, "since": "yesterday"},
			want: mcp.ErrInvalidSince.Error(),
		},
		{
			name: "missing repo name",
			args: map[string]any{"relative_file_path": "app.go", "repo_root_path": dir, "repo_name": "", "start_line": 1, "end_line": 2},
			want: mcp.ErrEmptyRepoName.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, text := callTool(t, session, mcp.ToolNameCodeChanges, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestServer_CodeChangesProviderError(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "https://github.com/acme/app.git")
	provider := &fakeProvider{err: history.ErrNotFound}
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: provider}))

	result, text := callTool(t, session, mcp.ToolNameCodeChanges, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     dir,
		"repo_name":          "app",
		"start_line":         1,
		"end_line":           1,
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, history.ErrNotFound.Error())
}

func TestServer_Blame(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, "")
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: &fakeProvider{}}))

	result, text := callTool(t, session, mcp.ToolNameBlame, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     dir,
		"start_line":         2,
		"end_line":           3,
	})
	require.False(t, result.IsError, text)

	var lines []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, float64(2), lines[0]["lineNumber"])
	assert.Equal(t, "alice", lines[0]["author"])
	assert.Equal(t, "three", lines[1]["content"])
}

func TestServer_BlameMissingRepository(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Provider: &fakeProvider{}}))

	result, text := callTool(t, session, mcp.ToolNameBlame, map[string]any{
		"relative_file_path": "app.go",
		"repo_root_path":     t.TempDir(),
		"start_line":         1,
		"end_line":           1,
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, history.ErrNotFound.Error())
}
