package installer

import (
	"fmt"

	"github.com/jfrog/frogbot-installer/server/models"
)

type ErrorKind int

const (
	MetadataFetchFailed ErrorKind = iota
	EnvironmentSetupFailed
	WorkflowEnableFailed
	BranchCreateFailed
	WorkflowUploadConflict
	WorkflowUploadFailed
	PullRequestCreateFailed
)

func (k ErrorKind) String() string {
	switch k {
	case MetadataFetchFailed:
		return "failed to fetch repository metadata"
	case EnvironmentSetupFailed:
		return "failed creating Frogbot environment with reviewers"
	case WorkflowEnableFailed:
		return "failed to enable workflows"
	case BranchCreateFailed:
		return "failed to create branch"
	case WorkflowUploadConflict:
		return "failed to add workflows, Frogbot configuration already exists"
	case WorkflowUploadFailed:
		return "failed to add workflows"
	case PullRequestCreateFailed:
		return "failed to open pull request"
	}
	return "failed to install Frogbot"
}

// Tag is the metric tag value of the kind.
func (k ErrorKind) Tag() string {
	switch k {
	case MetadataFetchFailed:
		return "metadata_fetch"
	case EnvironmentSetupFailed:
		return "environment_setup"
	case WorkflowEnableFailed:
		return "workflow_enable"
	case BranchCreateFailed:
		return "branch_create"
	case WorkflowUploadConflict:
		return "workflow_upload_conflict"
	case WorkflowUploadFailed:
		return "workflow_upload"
	case PullRequestCreateFailed:
		return "pull_request_create"
	}
	return "unknown"
}

// RepositoryInstallError is the failure of a single step of installing onto
// one repository.
type RepositoryInstallError struct {
	Kind       ErrorKind
	Repository models.Repository
	Err        error
}

func (e *RepositoryInstallError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *RepositoryInstallError) Unwrap() error {
	return e.Err
}

func newInstallError(kind ErrorKind, repo models.Repository, err error) *RepositoryInstallError {
	return &RepositoryInstallError{
		Kind:       kind,
		Repository: repo,
		Err:        err,
	}
}
