// Package setup provisions an organization for Frogbot and installs it onto
// every repository the app installation can reach.
package setup

import (
	"context"
	"strconv"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"golang.org/x/sync/errgroup"
)

const (
	URLSecret   = "JF_URL"
	TokenSecret = "JF_TOKEN"

	secretVisibility = "all"
)

type OrgGateway interface {
	GetOrgPublicKey(ctx context.Context, org string) (models.OrgPublicKey, error)
	UpsertOrgSecret(ctx context.Context, org string, secret models.EncryptedSecret) error
	EnableOrgWorkflows(ctx context.Context, org string) error
	SetOrgDefaultWorkflowPermissions(ctx context.Context, org string) error
	ListInstallationRepos(ctx context.Context, installationID int64) ([]models.Repository, error)
	GetInstallation(ctx context.Context, installationID int64) (models.Installation, error)
}

type CredentialValidator interface {
	Validate(ctx context.Context, platformURL string, accessToken string) error
}

type Sealer interface {
	Seal(plaintext string, publicKey string) (string, error)
}

type ProgressSender interface {
	Send(sessionKey string, event models.ProgressEvent)
}

type batchInstaller interface {
	InstallAll(ctx context.Context, repos []models.Repository, sessionKey string) models.BatchResult
}

// Coordinator runs the setup form flow for a single app installation.
type Coordinator struct {
	Gateway      OrgGateway
	Credentials  CredentialValidator
	Sealer       Sealer
	Progress     ProgressSender
	Orchestrator batchInstaller
	Logger       logging.Logger
	Scope        tally.Scope
}

// SessionKey is the progress session a setup for installationID reports to.
func SessionKey(installationID int64) string {
	return strconv.FormatInt(installationID, 10)
}

// Run returns *CredentialValidationError when the platform rejects the
// credentials and *SetupError for any failure before installation starts.
// Per-repository failures are part of the returned result.
func (c *Coordinator) Run(ctx context.Context, platformURL string, accessToken string, installationID int64) (models.BatchResult, error) {
	sessionKey := SessionKey(installationID)
	ctx = context.WithValue(ctx, key.InstallationIDKey, installationID)
	timer := c.Scope.Timer(metrics.ExecutionTimeMetric).Start()
	defer timer.Stop()

	c.Progress.Send(sessionKey, models.ValidatingCredentialsEvent())
	if err := c.Credentials.Validate(ctx, platformURL, accessToken); err != nil {
		c.Scope.Tagged(map[string]string{metrics.StepTag: "credentials"}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		return models.BatchResult{}, &CredentialValidationError{Err: err}
	}

	c.Progress.Send(sessionKey, models.AddingGlobalSecretsEvent())
	repos, err := c.prepareOrganization(ctx, platformURL, accessToken, installationID)
	if err != nil {
		c.Scope.Tagged(map[string]string{metrics.StepTag: "organization"}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		c.Logger.ErrorContext(ctx, "setting up organization", map[string]interface{}{
			key.ErrKey.String(): err.Error(),
		})
		return models.BatchResult{}, &SetupError{Err: err}
	}

	c.Progress.Send(sessionKey, models.InstallingFrogbotEvent(len(repos)))
	result := c.Orchestrator.InstallAll(ctx, repos, sessionKey)
	c.Scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
	return result, nil
}

func (c *Coordinator) prepareOrganization(ctx context.Context, platformURL string, accessToken string, installationID int64) ([]models.Repository, error) {
	installation, err := c.Gateway.GetInstallation(ctx, installationID)
	if err != nil {
		return nil, err
	}
	org := installation.OrganizationLogin

	for _, secret := range []models.OrgSecret{
		{Name: URLSecret, PlaintextValue: platformURL},
		{Name: TokenSecret, PlaintextValue: accessToken},
	} {
		if err := c.provisionSecret(ctx, org, secret); err != nil {
			return nil, err
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.Gateway.EnableOrgWorkflows(groupCtx, org)
	})
	group.Go(func() error {
		return c.Gateway.SetOrgDefaultWorkflowPermissions(groupCtx, org)
	})
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "enabling organization workflows")
	}

	repos, err := c.Gateway.ListInstallationRepos(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *Coordinator) provisionSecret(ctx context.Context, org string, secret models.OrgSecret) error {
	publicKey, err := c.Gateway.GetOrgPublicKey(ctx, org)
	if err != nil {
		return errors.Wrapf(err, "provisioning %s", secret.Name)
	}
	sealed, err := c.Sealer.Seal(secret.PlaintextValue, publicKey.Key)
	if err != nil {
		return errors.Wrapf(err, "provisioning %s", secret.Name)
	}
	err = c.Gateway.UpsertOrgSecret(ctx, org, models.EncryptedSecret{
		Name:           secret.Name,
		EncryptedValue: sealed,
		KeyID:          publicKey.KeyID,
		Visibility:     secretVisibility,
	})
	if err != nil {
		return errors.Wrapf(err, "provisioning %s", secret.Name)
	}
	return nil
}
