// Package github implements the GitHub REST back-end.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/masmgr/gitwho2blame-go/internal/history"
)

const pageSize = 100

// Client is the subset of the GitHub REST API the source needs.
type Client interface {
	ListFileCommits(ctx context.Context, owner, repo, path string, since time.Time) ([]*github.RepositoryCommit, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error)
	GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// ClientOptions configures NewRESTClient.
type ClientOptions struct {
	Token string
	// BaseURL targets GitHub Enterprise, e.g. https://ghe.example.com/api/v3/.
	BaseURL    string
	HTTPClient *http.Client
}

// RESTClient implements Client with go-github.
type RESTClient struct {
	gh *github.Client
}

// NewRESTClient creates a RESTClient.
func NewRESTClient(opts ClientOptions) (*RESTClient, error) {
	gh := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		gh = gh.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		gh.BaseURL = base
	}
	return &RESTClient{gh: gh}, nil
}

// ListFileCommits lists every commit touching path since the given time,
// following pagination.
func (c *RESTClient) ListFileCommits(ctx context.Context, owner, repo, path string, since time.Time) ([]*github.RepositoryCommit, error) {
	opts := &github.CommitsListOptions{
		Path:        path,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var all []*github.RepositoryCommit
	for {
		commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, translate(err, "repository %s/%s", owner, repo)
		}
		all = append(all, commits...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetCommit returns a commit including its file list and patches.
func (c *RESTClient) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error) {
	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, &github.ListOptions{PerPage: pageSize})
	if err != nil {
		return nil, translate(err, "commit %s", sha)
	}
	return commit, nil
}

// GetFileContents returns the decoded content of path at ref.
func (c *RESTClient) GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, translate(err, "%s at %s", path, ref)
	}
	if file == nil {
		return nil, fmt.Errorf("%s at %s is a directory: %w", path, ref, history.ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s at %s: %w", path, ref, err)
	}
	return []byte(content), nil
}

// translate maps 404 responses to history.ErrNotFound.
func translate(err error, format string, args ...any) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf(format+": %w", append(args, history.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Compile-time interface conformance check.
var _ Client = (*RESTClient)(nil)
