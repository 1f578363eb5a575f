package github

import (
	"context"
	"net/http"

	gh "github.com/google/go-github/v45/github"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/pkg/errors"
)

func (c *Client) GetRepo(ctx context.Context, owner string, repo string) (string, error) {
	client, err := c.installationClient()
	if err != nil {
		return "", err
	}
	repository, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", errors.Wrap(err, "getting repository")
	}
	if repository.GetDefaultBranch() == "" {
		return "", errors.New("default branch was empty, this is a bug on github's side")
	}
	return repository.GetDefaultBranch(), nil
}

func (c *Client) EnableWorkflows(ctx context.Context, owner string, repo string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	return put(ctx, client, repoPath(owner, repo, "actions/permissions"), actionsPermissions{
		Enabled:        gh.Bool(true),
		AllowedActions: allActions,
	})
}

func (c *Client) SetDefaultWorkflowPermissions(ctx context.Context, owner string, repo string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	return put(ctx, client, repoPath(owner, repo, "actions/permissions/workflow"), defaultWorkflowPermissions())
}

func (c *Client) ListMaintainers(ctx context.Context, owner string, repo string) ([]int64, error) {
	client, err := c.installationClient()
	if err != nil {
		return nil, err
	}
	run := func(ctx context.Context, nextPage int) ([]*gh.User, *gh.Response, error) {
		return client.Repositories.ListCollaborators(ctx, owner, repo, &gh.ListCollaboratorsOptions{
			Affiliation: collaboratorAffiliation,
			Permission:  collaboratorPermission,
			ListOptions: gh.ListOptions{Page: nextPage, PerPage: perPage},
		})
	}
	process := func(users []*gh.User) []int64 {
		var ids []int64
		for _, user := range users {
			ids = append(ids, user.GetID())
		}
		return ids
	}
	ids, err := Iterate(ctx, run, process)
	if err != nil {
		return nil, errors.Wrap(err, "listing collaborators")
	}
	return ids, nil
}

// ListOrgTeams returns no teams when owner is not an organization.
func (c *Client) ListOrgTeams(ctx context.Context, org string) ([]models.Team, error) {
	client, err := c.installationClient()
	if err != nil {
		return nil, err
	}
	run := func(ctx context.Context, nextPage int) ([]*gh.Team, *gh.Response, error) {
		return client.Teams.ListTeams(ctx, org, &gh.ListOptions{Page: nextPage, PerPage: perPage})
	}
	process := func(teams []*gh.Team) []models.Team {
		var converted []models.Team
		for _, team := range teams {
			converted = append(converted, models.Team{ID: team.GetID(), Slug: team.GetSlug()})
		}
		return converted
	}
	teams, err := Iterate(ctx, run, process)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing teams")
	}
	return teams, nil
}

// CheckTeamRepoPermission reports no permissions when the team has no access
// to the repository at all.
func (c *Client) CheckTeamRepoPermission(ctx context.Context, org string, teamSlug string, owner string, repo string) (models.TeamPermission, error) {
	client, err := c.installationClient()
	if err != nil {
		return models.TeamPermission{}, err
	}
	repository, _, err := client.Teams.IsTeamRepoBySlug(ctx, org, teamSlug, owner, repo)
	if isNotFound(err) {
		return models.TeamPermission{}, nil
	}
	if err != nil {
		return models.TeamPermission{}, errors.Wrapf(err, "checking permissions of team %s", teamSlug)
	}
	permissions := repository.GetPermissions()
	return models.TeamPermission{
		Admin:    permissions["admin"],
		Maintain: permissions["maintain"],
	}, nil
}

func (c *Client) CreateOrUpdateEnvironment(ctx context.Context, owner string, repo string, name string, reviewers []models.Reviewer) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	env := &gh.CreateUpdateEnvironment{}
	for _, reviewer := range reviewers {
		env.Reviewers = append(env.Reviewers, &gh.EnvReviewers{
			Type: gh.String(string(reviewer.Type)),
			ID:   gh.Int64(reviewer.ID),
		})
	}
	if _, _, err := client.Repositories.CreateUpdateEnvironment(ctx, owner, repo, name, env); err != nil {
		return errors.Wrapf(err, "creating environment %s", name)
	}
	return nil
}

func (c *Client) GetBranchHeadSha(ctx context.Context, owner string, repo string, branch string) (string, error) {
	client, err := c.installationClient()
	if err != nil {
		return "", err
	}
	ref, _, err := client.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", errors.Wrapf(err, "getting ref of %s", branch)
	}
	return ref.GetObject().GetSHA(), nil
}

func (c *Client) CreateBranch(ctx context.Context, owner string, repo string, branch string, sha string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	_, _, err = client.Git.CreateRef(ctx, owner, repo, &gh.Reference{
		Ref:    gh.String("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.String(sha)},
	})
	if err != nil {
		return errors.Wrapf(err, "creating ref %s", branch)
	}
	return nil
}

// PutFileContents creates path on branch. A file already present at path is
// reported as a *models.ConflictError.
func (c *Client) PutFileContents(ctx context.Context, owner string, repo string, path string, message string, content []byte, branch string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	_, _, err = client.Repositories.CreateFile(ctx, owner, repo, path, &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
		Branch:  gh.String(branch),
	})
	if statusCode(err) == http.StatusUnprocessableEntity {
		return &models.ConflictError{Err: errors.Wrapf(err, "%s already exists", path)}
	}
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	return nil
}

func (c *Client) CreatePullRequest(ctx context.Context, owner string, repo string, title string, head string, base string, body string) (string, error) {
	client, err := c.installationClient()
	if err != nil {
		return "", err
	}
	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &gh.NewPullRequest{
		Title: gh.String(title),
		Head:  gh.String(head),
		Base:  gh.String(base),
		Body:  gh.String(body),
	})
	if err != nil {
		return "", errors.Wrap(err, "creating pull request")
	}
	if pr.GetHTMLURL() == "" {
		return "", errors.Errorf("pull request #%d has no html url", pr.GetNumber())
	}
	return pr.GetHTMLURL(), nil
}

func (c *Client) DispatchWorkflow(ctx context.Context, owner string, repo string, workflowFile string, ref string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	_, err = client.Actions.CreateWorkflowDispatchEventByFileName(ctx, owner, repo, workflowFile, gh.CreateWorkflowDispatchEventRequest{
		Ref: ref,
	})
	if err != nil {
		return errors.Wrapf(err, "dispatching %s", workflowFile)
	}
	return nil
}
