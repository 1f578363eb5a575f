package installer

import (
	"context"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/uber-go/tally/v4"
)

type ProgressSender interface {
	Send(sessionKey string, event models.ProgressEvent)
}

type repositoryInstaller interface {
	Install(ctx context.Context, repo models.Repository) models.InstallationOutcome
}

// BatchOrchestrator installs onto a list of repositories one at a time and
// reports each attempt to the session watching it.
type BatchOrchestrator struct {
	Installer repositoryInstaller
	Progress  ProgressSender
	Logger    logging.Logger
	Scope     tally.Scope
}

// InstallAll attempts every repository, in order, and never fails as a whole.
func (o *BatchOrchestrator) InstallAll(ctx context.Context, repos []models.Repository, sessionKey string) models.BatchResult {
	ctx = context.WithValue(ctx, key.SessionKey, sessionKey)
	o.Logger.InfoContext(ctx, "installing frogbot", map[string]interface{}{
		"repositories": len(repos),
	})

	outcomes := make([]models.InstallationOutcome, 0, len(repos))
	for _, repo := range repos {
		outcome := o.Installer.Install(ctx, repo)
		outcomes = append(outcomes, outcome)
		o.Progress.Send(sessionKey, models.FrogbotInstalledEvent(repo.Name))
	}

	result := models.NewBatchResult(outcomes)
	if result.IsPartial {
		o.Scope.Counter(metrics.ExecutionPartialMetric).Inc(1)
	} else {
		o.Scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
	}
	o.Logger.InfoContext(ctx, "finished installing frogbot", map[string]interface{}{
		"repositories": len(repos),
		"failures":     result.Failures(),
	})
	return result
}
