package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/masmgr/gitwho2blame-go/internal/linediff"
)

const tracerName = "github.com/masmgr/gitwho2blame-go/internal/history"

// Aggregator walks a file's commit history through a Source and produces
// one CodeChangeSummary per commit that changed lines inside the window.
type Aggregator struct {
	source   Source
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
	bound    linediff.HunkBound
	exclude  []string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTracer sets the tracer used for aggregation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Aggregator) { a.tracer = tracer }
}

// WithRecorder sets the receiver of per-commit outcomes.
func WithRecorder(recorder Recorder) Option {
	return func(a *Aggregator) { a.recorder = recorder }
}

// WithHunkBound selects how patch hunks are matched against the window.
func WithHunkBound(bound linediff.HunkBound) Option {
	return func(a *Aggregator) { a.bound = bound }
}

// WithExclude sets doublestar patterns for paths that are never looked up.
func WithExclude(patterns []string) Option {
	return func(a *Aggregator) { a.exclude = patterns }
}

// NewAggregator creates an Aggregator over source. A nil logger discards output.
func NewAggregator(source Source, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Aggregator{
		source: source,
		logger: logger.With(slog.String("provider", source.Name())),
		tracer: otel.Tracer(tracerName),
		bound:  linediff.BoundStrict,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider tag of the underlying source.
func (a *Aggregator) Name() string {
	return a.source.Name()
}

// GetCodeChanges implements Provider.
func (a *Aggregator) GetCodeChanges(
	ctx context.Context,
	relativeFilePath, repoRootPath, repoName, owner, branchName string,
	startLine, endLine int,
	since time.Time,
) ([]CodeChangeSummary, error) {
	return a.CodeChanges(ctx, Request{
		FilePath: relativeFilePath,
		RepoRoot: repoRootPath,
		RepoName: repoName,
		Owner:    owner,
		Branch:   branchName,
		Window:   linediff.Window{Start: startLine, End: endLine},
		Since:    since,
	})
}

// CodeChanges returns the summaries for req in the order the source listed
// the commits. Commits that fail individually are logged and skipped;
// listing failures and cancellation are returned to the caller.
func (a *Aggregator) CodeChanges(ctx context.Context, req Request) ([]CodeChangeSummary, error) {
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	if pattern, ok := a.excluded(req.FilePath); ok {
		return nil, fmt.Errorf("%w: %s matches %q", ErrExcludedPath, req.FilePath, pattern)
	}

	ctx, span := a.tracer.Start(ctx, "history.CodeChanges", trace.WithAttributes(
		attribute.String("provider", a.source.Name()),
		attribute.String("file", req.FilePath),
		attribute.Int("window.start", req.Window.Start),
		attribute.Int("window.end", req.Window.End),
	))
	defer span.End()

	logger := a.logger.With(slog.String("file", req.FilePath), slog.String("window", req.Window.String()))

	commits, err := a.source.ListCommits(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list commits for %s: %w", req.FilePath, err)
	}
	if len(commits) == 0 {
		logger.InfoContext(ctx, "no commits found", slog.Time("since", req.Since))
		return []CodeChangeSummary{}, nil
	}
	logger.InfoContext(ctx, "found commits", slog.Int("count", len(commits)))

	summaries := make([]CodeChangeSummary, 0, len(commits))
	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary, err := a.summarize(ctx, req, commit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.skip(ctx, logger, commit, err)
			continue
		}

		if a.recorder != nil {
			a.recorder.CommitIncluded(a.source.Name())
		}
		summaries = append(summaries, summary)
	}

	span.SetAttributes(attribute.Int("summaries", len(summaries)))
	return summaries, nil
}

func (a *Aggregator) summarize(ctx context.Context, req Request, commit CommitRef) (CodeChangeSummary, error) {
	rep, err := a.source.ResolveDiff(ctx, req, commit)
	if err != nil {
		return CodeChangeSummary{}, err
	}
	if rep.Commit.ID != "" {
		commit = rep.Commit
	}

	var lines []linediff.CodeLine
	switch {
	case rep.IsAddition:
		lines, err = a.addedLines(ctx, req, commit.ID)
	case rep.Format == FormatPatch:
		lines = linediff.ParsePatch(rep.Patch, req.Window, a.bound)
	default:
		lines, err = a.mergedLines(ctx, req, commit.ID, rep)
	}
	if err != nil {
		return CodeChangeSummary{}, err
	}
	if len(lines) == 0 {
		return CodeChangeSummary{}, ErrNoIntersectingChange
	}

	return CodeChangeSummary{
		CommitID:     commit.ID,
		Author:       commit.Author,
		Message:      commit.Message,
		Timestamp:    commit.Timestamp,
		ChangedLines: lines,
	}, nil
}

// addedLines treats every window line of the current content as added.
func (a *Aggregator) addedLines(ctx context.Context, req Request, revision string) ([]linediff.CodeLine, error) {
	content, err := a.content(ctx, req, revision)
	if err != nil {
		return nil, err
	}
	return linediff.ReadWindow(content, req.Window, nil, linediff.ChangeKindAdd, linediff.ClassifyAdded), nil
}

// mergedLines reads both snapshots through the expanded blocks and merges
// the deleted and added lines.
func (a *Aggregator) mergedLines(ctx context.Context, req Request, revision string, rep *DiffRepresentation) ([]linediff.CodeLine, error) {
	if len(linediff.RelevantBlocks(rep.Blocks, req.Window)) == 0 {
		return nil, ErrNoIntersectingChange
	}
	if rep.ParentID == "" {
		return nil, fmt.Errorf("parent of %s: %w", revision, ErrNotFound)
	}

	current, err := a.content(ctx, req, revision)
	if err != nil {
		return nil, err
	}
	parent, err := a.content(ctx, req, rep.ParentID)
	if err != nil {
		return nil, err
	}

	expanded := linediff.ExpandBlocks(rep.Blocks, req.Window)
	deleted := linediff.ReadWindow(parent, req.Window, expanded.OriginalLookup(), linediff.ChangeKindNone, linediff.ClassifyDeleted)
	added := linediff.ReadWindow(current, req.Window, expanded.ModifiedLookup(), linediff.ChangeKindNone, linediff.ClassifyAdded)
	return linediff.MergeChanges(deleted, added), nil
}

func (a *Aggregator) content(ctx context.Context, req Request, revision string) ([]byte, error) {
	content, err := a.source.FetchContent(ctx, req, revision)
	if err != nil {
		return nil, fmt.Errorf("content of %s at %s: %w", req.FilePath, revision, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", req.FilePath, revision, ErrEmptyContent)
	}
	return content, nil
}

func (a *Aggregator) skip(ctx context.Context, logger *slog.Logger, commit CommitRef, err error) {
	reason := skipReason(err)
	attrs := []any{slog.String("commit", commit.ID), slog.String("reason", reason)}
	if errors.Is(err, ErrNoIntersectingChange) {
		logger.InfoContext(ctx, "skipping commit", attrs...)
	} else {
		logger.WarnContext(ctx, "skipping commit", append(attrs, slog.Any("error", err))...)
	}
	if a.recorder != nil {
		a.recorder.CommitSkipped(a.source.Name(), reason)
	}
}

func (a *Aggregator) excluded(path string) (string, bool) {
	for _, pattern := range a.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return pattern, true
		}
	}
	return "", false
}
