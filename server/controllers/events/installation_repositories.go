// Package events reacts to the GitHub App webhooks delivered through the
// githubapp event dispatcher.
package events

import (
	"context"
	"encoding/json"

	"github.com/google/go-github/v45/github"
	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/setup"
	"github.com/jfrog/frogbot-installer/server/sync"
	"github.com/jfrog/frogbot-installer/server/vcs/provider/github/converter"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
)

const (
	InstallationRepositoriesEvent = "installation_repositories"
	PullRequestEvent              = "pull_request"

	addedAction = "added"
)

type scheduler interface {
	Schedule(ctx context.Context, f sync.Executor) error
}

type BatchInstaller interface {
	InstallAll(ctx context.Context, repos []models.Repository, sessionKey string) models.BatchResult
}

type ProgressSender interface {
	Send(sessionKey string, event models.ProgressEvent)
}

// InstallationRepositoriesHandler installs Frogbot onto repositories that are
// added to an existing app installation.
type InstallationRepositoriesHandler struct {
	NewBatchInstaller func(installationID int64) BatchInstaller
	Progress          ProgressSender
	Scheduler         scheduler
	Logger            logging.Logger
	Scope             tally.Scope
}

func (h *InstallationRepositoriesHandler) Handles() []string {
	return []string{InstallationRepositoriesEvent}
}

func (h *InstallationRepositoriesHandler) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	scope := h.Scope.Tagged(map[string]string{metrics.EventTag: eventType})

	var event github.InstallationRepositoriesEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
		return &EventParsingError{Err: errors.Wrap(err, "unmarshalling installation_repositories payload")}
	}

	installationID := githubapp.GetInstallationIDFromEvent(&event)
	ctx = context.WithValue(ctx, key.DeliveryIDKey, deliveryID)
	ctx = context.WithValue(ctx, key.InstallationIDKey, installationID)

	if event.GetAction() != addedAction {
		h.Logger.DebugContext(ctx, "ignoring installation_repositories event", map[string]interface{}{
			"action": event.GetAction(),
		})
		return nil
	}

	repos := converter.AddedRepositories(&event)
	if len(repos) == 0 {
		return nil
	}

	sessionKey := setup.SessionKey(installationID)
	err := h.Scheduler.Schedule(ctx, func(ctx context.Context) error {
		// A wizard watching the installation counts FrogbotInstalled events
		// against this total.
		h.Progress.Send(sessionKey, models.InstallingFrogbotEvent(len(repos)))
		result := h.NewBatchInstaller(installationID).InstallAll(ctx, repos, sessionKey)
		h.Logger.InfoContext(ctx, "installed frogbot on added repositories", map[string]interface{}{
			"repositories": len(repos),
			"failures":     result.Failures(),
		})
		return nil
	})
	if err != nil {
		scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
		return errors.Wrap(err, "scheduling installation")
	}
	scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
	return nil
}
