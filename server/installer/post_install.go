package installer

import (
	"context"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/workflows"
)

const closedAction = "closed"

type WorkflowDispatcher interface {
	DispatchWorkflow(ctx context.Context, owner string, repo string, workflowFile string, ref string) error
}

// PostInstaller kicks off the first repository scan once the Frogbot pull
// request is merged.
type PostInstaller struct {
	Dispatcher WorkflowDispatcher
	Logger     logging.Logger
}

// Handle ignores every event other than a merged Frogbot pull request.
// Dispatch failures are logged and not returned.
func (p *PostInstaller) Handle(ctx context.Context, event models.PullRequestEvent) {
	if event.Action != closedAction || !event.Merged || !models.IsSourceBranch(event.HeadRef) {
		return
	}

	ctx = context.WithValue(ctx, key.RepositoryKey, event.Repository.FullName)
	err := p.Dispatcher.DispatchWorkflow(ctx, event.Repository.Owner(), event.Repository.Name, workflows.ScanRepositoryWorkflow, event.BaseRef)
	if err != nil {
		p.Logger.ErrorContext(ctx, "triggering initial repository scan", map[string]interface{}{
			key.ErrKey.String(): err.Error(),
		})
		return
	}
	p.Logger.InfoContext(ctx, "triggered initial repository scan", map[string]interface{}{
		"ref": event.BaseRef,
	})
}
