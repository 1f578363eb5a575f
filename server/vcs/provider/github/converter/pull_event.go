package converter

import (
	"fmt"

	"github.com/google/go-github/v45/github"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/palantir/go-githubapp/githubapp"
)

// PullEvent converts a github pull request event to our internal representation.
func PullEvent(pullEvent *github.PullRequestEvent) (models.PullRequestEvent, error) {
	if pullEvent.PullRequest == nil {
		return models.PullRequestEvent{}, fmt.Errorf("pull_request is null")
	}
	if pullEvent.Repo == nil {
		return models.PullRequestEvent{}, fmt.Errorf("repository is null")
	}
	pull := pullEvent.GetPullRequest()
	return models.PullRequestEvent{
		Repository:     Repository(pullEvent.GetRepo()),
		InstallationID: githubapp.GetInstallationIDFromEvent(pullEvent),
		Action:         pullEvent.GetAction(),
		HeadRef:        pull.GetHead().GetRef(),
		BaseRef:        pull.GetBase().GetRef(),
		Merged:         pull.GetMerged(),
	}, nil
}
