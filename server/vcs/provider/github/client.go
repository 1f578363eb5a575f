package github

import (
	"context"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v45/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
)

const (
	collaboratorAffiliation = "direct"
	collaboratorPermission  = "maintain"
	workflowPermissionWrite = "write"
	allActions              = "all"
	perPage                 = 100
)

// Client talks to GitHub on behalf of a single app installation. It backs
// both the repository and organization operations of an installation.
type Client struct {
	ClientCreator  githubapp.ClientCreator
	InstallationID int64
}

func (c *Client) installationClient() (*gh.Client, error) {
	client, err := c.ClientCreator.NewInstallationClient(c.InstallationID)
	if err != nil {
		return nil, errors.Wrap(err, "creating installation client")
	}
	return client, nil
}

// put issues a request against endpoints go-github does not model yet.
func put(ctx context.Context, client *gh.Client, path string, body interface{}) error {
	req, err := client.NewRequest(http.MethodPut, path, body)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", path)
	}
	if _, err := client.Do(ctx, req, nil); err != nil {
		return errors.Wrapf(err, "PUT %s", path)
	}
	return nil
}

func statusCode(err error) int {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

type actionsPermissions struct {
	Enabled             *bool   `json:"enabled,omitempty"`
	EnabledRepositories *string `json:"enabled_repositories,omitempty"`
	AllowedActions      string  `json:"allowed_actions"`
}

type workflowPermissions struct {
	DefaultWorkflowPermissions   string `json:"default_workflow_permissions"`
	CanApprovePullRequestReviews bool   `json:"can_approve_pull_request_reviews"`
}

func defaultWorkflowPermissions() workflowPermissions {
	return workflowPermissions{
		DefaultWorkflowPermissions:   workflowPermissionWrite,
		CanApprovePullRequestReviews: true,
	}
}

func repoPath(owner string, repo string, suffix string) string {
	return fmt.Sprintf("repos/%s/%s/%s", owner, repo, suffix)
}

func orgPath(org string, suffix string) string {
	return fmt.Sprintf("orgs/%s/%s", org, suffix)
}
