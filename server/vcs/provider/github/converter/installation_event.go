package converter

import (
	"github.com/google/go-github/v45/github"
	"github.com/jfrog/frogbot-installer/server/models"
)

// AddedRepositories returns the repositories an installation_repositories
// event added, in payload order.
func AddedRepositories(e *github.InstallationRepositoriesEvent) []models.Repository {
	var repos []models.Repository
	for _, repo := range e.RepositoriesAdded {
		repos = append(repos, Repository(repo))
	}
	return repos
}
