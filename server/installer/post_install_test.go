package installer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jfrog/frogbot-installer/server/installer"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/stretchr/testify/assert"
)

type dispatch struct {
	Owner    string
	Repo     string
	Workflow string
	Ref      string
}

type testDispatcher struct {
	err        error
	dispatches []dispatch
}

func (d *testDispatcher) DispatchWorkflow(ctx context.Context, owner string, repo string, workflowFile string, ref string) error {
	d.dispatches = append(d.dispatches, dispatch{Owner: owner, Repo: repo, Workflow: workflowFile, Ref: ref})
	return d.err
}

func TestPostInstaller(t *testing.T) {
	merged := models.PullRequestEvent{
		Repository: models.Repository{FullName: "acme/api", Name: "api"},
		Action:     "closed",
		Merged:     true,
		HeadRef:    models.NewSourceBranchName().String(),
		BaseRef:    "main",
	}

	t.Run("dispatches scan on merge", func(t *testing.T) {
		dispatcher := &testDispatcher{}
		p := &installer.PostInstaller{Dispatcher: dispatcher, Logger: logging.NewNoopCtxLogger(t)}

		p.Handle(context.Background(), merged)

		assert.Equal(t, []dispatch{{Owner: "acme", Repo: "api", Workflow: "frogbot-scan-repository.yml", Ref: "main"}}, dispatcher.dispatches)
	})

	t.Run("ignores other events", func(t *testing.T) {
		notMerged := merged
		notMerged.Merged = false
		otherBranch := merged
		otherBranch.HeadRef = "feature"
		opened := merged
		opened.Action = "opened"

		dispatcher := &testDispatcher{}
		p := &installer.PostInstaller{Dispatcher: dispatcher, Logger: logging.NewNoopCtxLogger(t)}
		for _, e := range []models.PullRequestEvent{notMerged, otherBranch, opened} {
			p.Handle(context.Background(), e)
		}

		assert.Empty(t, dispatcher.dispatches)
	})

	t.Run("dispatch failure is swallowed", func(t *testing.T) {
		dispatcher := &testDispatcher{err: errors.New("workflow not found")}
		p := &installer.PostInstaller{Dispatcher: dispatcher, Logger: logging.NewNoopCtxLogger(t)}

		assert.NotPanics(t, func() { p.Handle(context.Background(), merged) })
		assert.Len(t, dispatcher.dispatches, 1)
	})
}
