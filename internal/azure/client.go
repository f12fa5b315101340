// Package azure implements the Azure DevOps Git back-end.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	adogit "github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"

	"github.com/masmgr/gitwho2blame-go/internal/history"
)

// Client is the subset of the Azure DevOps Git API the source needs.
type Client interface {
	GetRepositories(ctx context.Context, args adogit.GetRepositoriesArgs) (*[]adogit.GitRepository, error)
	GetCommits(ctx context.Context, args adogit.GetCommitsArgs) (*[]adogit.GitCommitRef, error)
	GetCommit(ctx context.Context, args adogit.GetCommitArgs) (*adogit.GitCommit, error)
	GetItemContent(ctx context.Context, args adogit.GetItemContentArgs) (io.ReadCloser, error)
	GetFileDiffs(ctx context.Context, args GetFileDiffsArgs) (*[]adogit.FileDiff, error)
}

// GetFileDiffsArgs are the arguments of Client.GetFileDiffs.
type GetFileDiffsArgs struct {
	// (required) Project ID or project name
	Project *string
	// (required) The id or friendly name of the repository.
	RepositoryId *string
	// (required) Base and target commits plus the file paths to compare.
	FileDiffsCriteria *adogit.FileDiffsCriteria
}

const fileDiffsAPIVersion = "7.1-preview.1"

// fileDiffsLocation identifies the git area's FileDiffs resource.
var fileDiffsLocation = uuid.MustParse("c4c5a7e6-e9f3-4730-a92b-84baacff694b")

// sdkClient serves the generated calls from adogit.Client and issues the
// FileDiffs request, which the SDK models but does not generate, through
// the git area's REST client.
type sdkClient struct {
	adogit.Client
	rest *azuredevops.Client
}

func newSDKClient(gitClient adogit.Client, rest *azuredevops.Client) *sdkClient {
	return &sdkClient{Client: gitClient, rest: rest}
}

// GetFileDiffs returns the line diff blocks of each requested file between
// two commits.
func (c *sdkClient) GetFileDiffs(ctx context.Context, args GetFileDiffsArgs) (*[]adogit.FileDiff, error) {
	if args.FileDiffsCriteria == nil {
		return nil, &azuredevops.ArgumentNilError{ArgumentName: "args.FileDiffsCriteria"}
	}
	if args.Project == nil || *args.Project == "" {
		return nil, &azuredevops.ArgumentNilOrEmptyError{ArgumentName: "args.Project"}
	}
	if args.RepositoryId == nil || *args.RepositoryId == "" {
		return nil, &azuredevops.ArgumentNilOrEmptyError{ArgumentName: "args.RepositoryId"}
	}
	routeValues := map[string]string{
		"project":      *args.Project,
		"repositoryId": *args.RepositoryId,
	}

	body, err := json.Marshal(*args.FileDiffsCriteria)
	if err != nil {
		return nil, err
	}
	resp, err := c.rest.Send(ctx, http.MethodPost, fileDiffsLocation, fileDiffsAPIVersion, routeValues, nil, bytes.NewReader(body), "application/json", "application/json", nil)
	if err != nil {
		return nil, err
	}

	var diffs []adogit.FileDiff
	if err := c.rest.UnmarshalCollectionBody(resp, &diffs); err != nil {
		return nil, err
	}
	return &diffs, nil
}

// ConnectionOptions configures NewClient.
type ConnectionOptions struct {
	OrgURL  string
	Token   string
	Timeout time.Duration
}

// NewClient connects to an organisation with a personal access token.
func NewClient(ctx context.Context, opts ConnectionOptions) (Client, error) {
	if opts.OrgURL == "" || opts.Token == "" {
		return nil, errors.New("azure devops organisation url and token are required")
	}
	conn := azuredevops.NewPatConnection(opts.OrgURL, opts.Token)
	if opts.Timeout > 0 {
		conn.Timeout = &opts.Timeout
	}
	gitClient, err := adogit.NewClient(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("create azure devops git client: %w", err)
	}
	rest, err := conn.GetClientByResourceAreaId(ctx, adogit.ResourceAreaId)
	if err != nil {
		return nil, fmt.Errorf("resolve azure devops git endpoint: %w", err)
	}
	return newSDKClient(gitClient, rest), nil
}

// translate maps 404 responses to history.ErrNotFound.
func translate(err error, format string, args ...any) error {
	if statusCode(err) == http.StatusNotFound {
		return fmt.Errorf(format+": %w", append(args, history.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func statusCode(err error) int {
	var wrapped azuredevops.WrappedError
	if errors.As(err, &wrapped) && wrapped.StatusCode != nil {
		return *wrapped.StatusCode
	}
	var wrappedPtr *azuredevops.WrappedError
	if errors.As(err, &wrappedPtr) && wrappedPtr.StatusCode != nil {
		return *wrappedPtr.StatusCode
	}
	return 0
}

var _ Client = (*sdkClient)(nil)
