package server

import (
	"github.com/jfrog/frogbot-installer/server/installer"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/platform"
	"github.com/jfrog/frogbot-installer/server/progress"
	"github.com/jfrog/frogbot-installer/server/secrets"
	"github.com/jfrog/frogbot-installer/server/setup"
	internalGH "github.com/jfrog/frogbot-installer/server/vcs/provider/github"
	"github.com/jfrog/frogbot-installer/server/workflows"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/uber-go/tally/v4"
)

// installationScope builds the components that act on behalf of a single
// app installation.
type installationScope struct {
	clientCreator githubapp.ClientCreator
	workflows     *workflows.Provider
	credentials   *platform.Client
	sealer        *secrets.Sealer
	progress      *progress.Registry
	logger        logging.Logger
	scope         tally.Scope
}

func (s *installationScope) gateway(installationID int64) *internalGH.Client {
	return &internalGH.Client{
		ClientCreator:  s.clientCreator,
		InstallationID: installationID,
	}
}

func (s *installationScope) batchInstaller(installationID int64) *installer.BatchOrchestrator {
	return &installer.BatchOrchestrator{
		Installer: &installer.RepositoryInstaller{
			Gateway:   s.gateway(installationID),
			Workflows: s.workflows,
			Logger:    s.logger,
			Scope:     s.scope.SubScope("installer"),
		},
		Progress: s.progress,
		Logger:   s.logger,
		Scope:    s.scope.SubScope("batch"),
	}
}

func (s *installationScope) postInstaller(installationID int64) *installer.PostInstaller {
	return &installer.PostInstaller{
		Dispatcher: s.gateway(installationID),
		Logger:     s.logger,
	}
}

func (s *installationScope) coordinator(installationID int64) *setup.Coordinator {
	return &setup.Coordinator{
		Gateway:      s.gateway(installationID),
		Credentials:  s.credentials,
		Sealer:       s.sealer,
		Progress:     s.progress,
		Orchestrator: s.batchInstaller(installationID),
		Logger:       s.logger,
		Scope:        s.scope.SubScope("setup"),
	}
}
