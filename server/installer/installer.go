// Package installer adds Frogbot to repositories: it prepares each
// repository, commits the Frogbot workflows to a fresh branch and proposes
// them in a pull request.
package installer

import (
	"context"
	"fmt"
	"path"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/workflows"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"github.com/uber-go/tally/v4"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxReviewers is the most reviewers GitHub accepts on an environment.
	MaxReviewers = 6

	teamCheckConcurrency = 10
)

// RepoGateway is the set of repository operations an installation needs.
type RepoGateway interface {
	GetRepo(ctx context.Context, owner string, repo string) (string, error)
	EnableWorkflows(ctx context.Context, owner string, repo string) error
	SetDefaultWorkflowPermissions(ctx context.Context, owner string, repo string) error
	ListMaintainers(ctx context.Context, owner string, repo string) ([]int64, error)
	ListOrgTeams(ctx context.Context, org string) ([]models.Team, error)
	CheckTeamRepoPermission(ctx context.Context, org string, teamSlug string, owner string, repo string) (models.TeamPermission, error)
	CreateOrUpdateEnvironment(ctx context.Context, owner string, repo string, name string, reviewers []models.Reviewer) error
	GetBranchHeadSha(ctx context.Context, owner string, repo string, branch string) (string, error)
	CreateBranch(ctx context.Context, owner string, repo string, branch string, sha string) error
	PutFileContents(ctx context.Context, owner string, repo string, path string, message string, content []byte, branch string) error
	CreatePullRequest(ctx context.Context, owner string, repo string, title string, head string, base string, body string) (string, error)
}

type WorkflowProvider interface {
	Files(repository string, defaultBranch string) ([]workflows.File, error)
	PullRequestBody(repository string, defaultBranch string) (string, error)
}

// RepositoryInstaller installs Frogbot onto a single repository.
type RepositoryInstaller struct {
	Gateway   RepoGateway
	Workflows WorkflowProvider
	Logger    logging.Logger
	Scope     tally.Scope

	// NewBranchName defaults to models.NewSourceBranchName.
	NewBranchName func() models.SourceBranchName
}

// Install never returns an error, failures are part of the outcome.
func (i *RepositoryInstaller) Install(ctx context.Context, repo models.Repository) models.InstallationOutcome {
	ctx = context.WithValue(ctx, key.RepositoryKey, repo.FullName)
	timer := i.Scope.Timer(metrics.ExecutionTimeMetric).Start()
	defer timer.Stop()

	url, err := i.install(ctx, repo)
	if err != nil {
		var installErr *RepositoryInstallError
		kind := "unknown"
		if errors.As(err, &installErr) {
			kind = installErr.Kind.Tag()
		}
		i.Scope.Tagged(map[string]string{metrics.ErrorKindTag: kind}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		i.Logger.ErrorContext(ctx, "installing frogbot", map[string]interface{}{
			key.ErrKey.String(): err.Error(),
		})
		return models.Failed(repo.Name, err)
	}

	i.Scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
	i.Logger.InfoContext(ctx, "frogbot pull request opened", map[string]interface{}{
		"pull-request": url,
	})
	return models.Succeeded(repo.Name, url)
}

func (i *RepositoryInstaller) install(ctx context.Context, repo models.Repository) (string, error) {
	owner := repo.Owner()
	branch := i.newBranchName()

	defaultBranch, err := i.Gateway.GetRepo(ctx, owner, repo.Name)
	if err != nil {
		return "", newInstallError(MetadataFetchFailed, repo, err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return i.enableWorkflows(groupCtx, owner, repo)
	})
	group.Go(func() error {
		return i.createEnvironment(groupCtx, owner, repo)
	})
	group.Go(func() error {
		return i.createBranch(groupCtx, owner, repo, defaultBranch, branch)
	})
	if err := group.Wait(); err != nil {
		return "", err
	}

	if err := i.uploadWorkflows(ctx, owner, repo, defaultBranch, branch); err != nil {
		return "", err
	}

	body, err := i.Workflows.PullRequestBody(repo.FullName, defaultBranch)
	if err != nil {
		return "", newInstallError(PullRequestCreateFailed, repo, err)
	}
	url, err := i.Gateway.CreatePullRequest(ctx, owner, repo.Name, workflows.PullRequestTitle, branch.String(), defaultBranch, body)
	if err != nil {
		return "", newInstallError(PullRequestCreateFailed, repo, err)
	}
	return url, nil
}

func (i *RepositoryInstaller) newBranchName() models.SourceBranchName {
	if i.NewBranchName != nil {
		return i.NewBranchName()
	}
	return models.NewSourceBranchName()
}

func (i *RepositoryInstaller) enableWorkflows(ctx context.Context, owner string, repo models.Repository) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return i.Gateway.EnableWorkflows(groupCtx, owner, repo.Name)
	})
	group.Go(func() error {
		return i.Gateway.SetDefaultWorkflowPermissions(groupCtx, owner, repo.Name)
	})
	if err := group.Wait(); err != nil {
		return newInstallError(WorkflowEnableFailed, repo, err)
	}
	return nil
}

// createEnvironment gates Frogbot runs behind reviewers on public
// repositories only.
func (i *RepositoryInstaller) createEnvironment(ctx context.Context, owner string, repo models.Repository) error {
	var reviewers []models.Reviewer
	if !repo.Private {
		var err error
		reviewers, err = i.reviewers(ctx, owner, repo)
		if err != nil {
			return newInstallError(EnvironmentSetupFailed, repo, err)
		}
	}

	if err := i.Gateway.CreateOrUpdateEnvironment(ctx, owner, repo.Name, workflows.Environment, reviewers); err != nil {
		return newInstallError(EnvironmentSetupFailed, repo, err)
	}
	return nil
}

// reviewers lists maintainers first, then teams that administer or maintain
// the repository, capped at MaxReviewers.
func (i *RepositoryInstaller) reviewers(ctx context.Context, owner string, repo models.Repository) ([]models.Reviewer, error) {
	maintainers, err := i.Gateway.ListMaintainers(ctx, owner, repo.Name)
	if err != nil {
		return nil, errors.Wrap(err, "listing maintainers")
	}
	teams, err := i.Gateway.ListOrgTeams(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "listing teams")
	}

	permissions := make([]models.TeamPermission, len(teams))
	errs := make([]error, len(teams))
	swg := sizedwaitgroup.New(teamCheckConcurrency)
	for idx, team := range teams {
		swg.Add()
		go func(idx int, team models.Team) {
			defer swg.Done()
			permissions[idx], errs[idx] = i.Gateway.CheckTeamRepoPermission(ctx, owner, team.Slug, owner, repo.Name)
		}(idx, team)
	}
	swg.Wait()

	var reviewers []models.Reviewer
	for _, id := range maintainers {
		reviewers = append(reviewers, models.Reviewer{Type: models.UserReviewer, ID: id})
	}
	for idx, team := range teams {
		if errs[idx] != nil {
			return nil, errors.Wrapf(errs[idx], "checking team %s", team.Slug)
		}
		if permissions[idx].CanReview() {
			reviewers = append(reviewers, models.Reviewer{Type: models.TeamReviewer, ID: team.ID})
		}
	}

	if len(reviewers) > MaxReviewers {
		reviewers = reviewers[:MaxReviewers]
	}
	return reviewers, nil
}

func (i *RepositoryInstaller) createBranch(ctx context.Context, owner string, repo models.Repository, defaultBranch string, branch models.SourceBranchName) error {
	sha, err := i.Gateway.GetBranchHeadSha(ctx, owner, repo.Name, defaultBranch)
	if err != nil {
		return newInstallError(BranchCreateFailed, repo, err)
	}
	if err := i.Gateway.CreateBranch(ctx, owner, repo.Name, branch.String(), sha); err != nil {
		return newInstallError(BranchCreateFailed, repo, err)
	}
	return nil
}

func (i *RepositoryInstaller) uploadWorkflows(ctx context.Context, owner string, repo models.Repository, defaultBranch string, branch models.SourceBranchName) error {
	files, err := i.Workflows.Files(repo.FullName, defaultBranch)
	if err != nil {
		return newInstallError(WorkflowUploadFailed, repo, err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		group.Go(func() error {
			message := fmt.Sprintf("Added %s on %s", path.Base(file.Path), branch)
			err := i.Gateway.PutFileContents(groupCtx, owner, repo.Name, file.Path, message, file.Content, branch.String())
			if err == nil {
				return nil
			}
			var conflict *models.ConflictError
			if errors.As(err, &conflict) {
				return newInstallError(WorkflowUploadConflict, repo, err)
			}
			return newInstallError(WorkflowUploadFailed, repo, err)
		})
	}
	return group.Wait()
}
