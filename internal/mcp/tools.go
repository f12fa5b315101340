package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

// Tool names.
const (
	ToolNameCodeChanges = "get_code_changes_summary"
	ToolNameBlame       = "get_blame_for_lines"
)

// Sentinel errors for tool input validation.
var (
	ErrEmptyFilePath = errors.New("relative_file_path is required")
	ErrEmptyRepoRoot = errors.New("repo_root_path is required")
	ErrEmptyRepoName = errors.New("repo_name is required")
	ErrNoBranch      = errors.New("could not determine the current branch")
	ErrNoOwner       = errors.New("repository owner not found")
	ErrInvalidSince  = errors.New("since must be an ISO 8601 date")
)

// CodeChangesInput is the input schema for get_code_changes_summary.
type CodeChangesInput struct {
	RelativeFilePath string `json:"relative_file_path" jsonschema:"path of the file relative to the repository root"`
	RepoRootPath     string `json:"repo_root_path"     jsonschema:"absolute path of the local repository checkout"`
	RepoName         string `json:"repo_name"          jsonschema:"name of the repository on the hosting service"`
	StartLine        int    `json:"start_line"         jsonschema:"first line of the range (1-based)"`
	EndLine          int    `json:"end_line"           jsonschema:"last line of the range (inclusive)"`
	Since            string `json:"since,omitempty"    jsonschema:"only include changes since this date. Format: ISO 8601 (e.g. 2024-06-20T15:30:00Z)"`
}

// BlameInput is the input schema for get_blame_for_lines.
type BlameInput struct {
	RelativeFilePath string `json:"relative_file_path" jsonschema:"path of the file relative to the repository root"`
	RepoRootPath     string `json:"repo_root_path"     jsonschema:"absolute path of the local repository checkout"`
	StartLine        int    `json:"start_line"         jsonschema:"first line of the range (1-based)"`
	EndLine          int    `json:"end_line"           jsonschema:"last line of the range (inclusive)"`
}

// ToolOutput is the structured output of every tool.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleCodeChanges(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CodeChangesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	logger := s.logger.With(
		slog.String("file", input.RelativeFilePath),
		slog.String("repo", input.RepoName),
		slog.Int("start_line", input.StartLine),
		slog.Int("end_line", input.EndLine),
	)
	logger.InfoContext(ctx, "getting code changes summary")

	if err := validateCodeChangesInput(input); err != nil {
		return errorResult(err)
	}
	since, err := s.parseSince(input.Since)
	if err != nil {
		return errorResult(err)
	}

	repo, err := s.deps.OpenRepository(input.RepoRootPath)
	if err != nil {
		logger.WarnContext(ctx, "could not open repository", slog.String("root", input.RepoRootPath), slog.Any("error", err))
		return errorResult(fmt.Errorf("%w: %w", ErrNoBranch, err))
	}
	branch, err := repo.CurrentBranch()
	if err != nil || branch == "" {
		logger.WarnContext(ctx, "could not determine the current branch", slog.String("root", input.RepoRootPath), slog.Any("error", err))
		return errorResult(ErrNoBranch)
	}
	owner, ok, err := repo.Owner()
	if err != nil || !ok {
		logger.InfoContext(ctx, "no owner found", slog.String("root", input.RepoRootPath), slog.Any("error", err))
		return errorResult(ErrNoOwner)
	}

	summaries, err := s.deps.Provider.GetCodeChanges(ctx,
		input.RelativeFilePath, input.RepoRootPath, input.RepoName, owner, branch,
		input.StartLine, input.EndLine, since)
	if err != nil {
		logger.WarnContext(ctx, "code changes lookup failed", slog.Any("error", err))
		return errorResult(err)
	}

	return jsonResult(summaries)
}

func (s *Server) handleBlame(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input BlameInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.RelativeFilePath == "" {
		return errorResult(ErrEmptyFilePath)
	}
	if input.RepoRootPath == "" {
		return errorResult(ErrEmptyRepoRoot)
	}
	w := linediff.Window{Start: input.StartLine, End: input.EndLine}
	if err := w.Validate(); err != nil {
		return errorResult(err)
	}

	repo, err := s.deps.OpenRepository(input.RepoRootPath)
	if err != nil {
		return errorResult(fmt.Errorf("open repository: %w", err))
	}
	lines, err := repo.Blame(ctx, input.RelativeFilePath, w)
	if err != nil {
		s.logger.WarnContext(ctx, "blame failed", slog.String("file", input.RelativeFilePath), slog.Any("error", err))
		return errorResult(err)
	}

	return jsonResult(lines)
}

func validateCodeChangesInput(input CodeChangesInput) error {
	switch {
	case input.RelativeFilePath == "":
		return ErrEmptyFilePath
	case input.RepoRootPath == "":
		return ErrEmptyRepoRoot
	case input.RepoName == "":
		return ErrEmptyRepoName
	}
	return linediff.Window{Start: input.StartLine, End: input.EndLine}.Validate()
}

// parseSince accepts RFC 3339 timestamps and plain dates. An empty value
// means DefaultSinceDays before now.
func (s *Server) parseSince(value string) (time.Time, error) {
	if value == "" {
		return s.deps.Now().AddDate(0, 0, -s.deps.SinceDays), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSince, value)
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

const (
	codeChangesToolDescription = "Summarizes the history of changes in a specific section of a file by looking at diffs in git commits. " +
		"The summary includes commit SHA, author, message, date, and the changed lines in the given line range."

	blameToolDescription = "Reports, for each line in the given range of a file in a local repository, " +
		"the commit, author and date of its last change."
)
