package events

import (
	"context"
	"encoding/json"

	"github.com/google/go-github/v45/github"
	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/vcs/provider/github/converter"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
)

type PostInstaller interface {
	Handle(ctx context.Context, event models.PullRequestEvent)
}

// PullRequestHandler follows up on merged Frogbot pull requests.
type PullRequestHandler struct {
	NewPostInstaller func(installationID int64) PostInstaller
	Scheduler        scheduler
	Logger           logging.Logger
	Scope            tally.Scope
}

func (h *PullRequestHandler) Handles() []string {
	return []string{PullRequestEvent}
}

func (h *PullRequestHandler) Handle(ctx context.Context, eventType, deliveryID string, payload []byte) error {
	scope := h.Scope.Tagged(map[string]string{metrics.EventTag: eventType})

	var event github.PullRequestEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
		return &EventParsingError{Err: errors.Wrap(err, "unmarshalling pull_request payload")}
	}
	pull, err := converter.PullEvent(&event)
	if err != nil {
		scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
		return &EventParsingError{Err: err}
	}

	ctx = context.WithValue(ctx, key.DeliveryIDKey, deliveryID)
	ctx = context.WithValue(ctx, key.InstallationIDKey, pull.InstallationID)
	ctx = context.WithValue(ctx, key.RepositoryKey, pull.Repository.FullName)

	if !models.IsSourceBranch(pull.HeadRef) {
		h.Logger.DebugContext(ctx, "ignoring pull request not opened by the installer")
		return nil
	}

	err = h.Scheduler.Schedule(ctx, func(ctx context.Context) error {
		h.NewPostInstaller(pull.InstallationID).Handle(ctx, pull)
		return nil
	})
	if err != nil {
		scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
		return errors.Wrap(err, "scheduling post install")
	}
	scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
	return nil
}
