package github

import (
	"context"

	gh "github.com/google/go-github/v45/github"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/vcs/provider/github/converter"
	"github.com/pkg/errors"
)

func (c *Client) GetOrgPublicKey(ctx context.Context, org string) (models.OrgPublicKey, error) {
	client, err := c.installationClient()
	if err != nil {
		return models.OrgPublicKey{}, err
	}
	key, _, err := client.Actions.GetOrgPublicKey(ctx, org)
	if err != nil {
		return models.OrgPublicKey{}, errors.Wrap(err, "getting organization public key")
	}
	return models.OrgPublicKey{KeyID: key.GetKeyID(), Key: key.GetKey()}, nil
}

func (c *Client) UpsertOrgSecret(ctx context.Context, org string, secret models.EncryptedSecret) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	_, err = client.Actions.CreateOrUpdateOrgSecret(ctx, org, &gh.EncryptedSecret{
		Name:           secret.Name,
		KeyID:          secret.KeyID,
		EncryptedValue: secret.EncryptedValue,
		Visibility:     secret.Visibility,
	})
	if err != nil {
		return errors.Wrapf(err, "upserting secret %s", secret.Name)
	}
	return nil
}

func (c *Client) EnableOrgWorkflows(ctx context.Context, org string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	return put(ctx, client, orgPath(org, "actions/permissions"), actionsPermissions{
		EnabledRepositories: gh.String(allActions),
		AllowedActions:      allActions,
	})
}

func (c *Client) SetOrgDefaultWorkflowPermissions(ctx context.Context, org string) error {
	client, err := c.installationClient()
	if err != nil {
		return err
	}
	return put(ctx, client, orgPath(org, "actions/permissions/workflow"), defaultWorkflowPermissions())
}

func (c *Client) ListInstallationRepos(ctx context.Context, installationID int64) ([]models.Repository, error) {
	client, err := c.ClientCreator.NewInstallationClient(installationID)
	if err != nil {
		return nil, errors.Wrap(err, "creating installation client")
	}
	run := func(ctx context.Context, nextPage int) (*gh.ListRepositories, *gh.Response, error) {
		return client.Apps.ListRepos(ctx, &gh.ListOptions{Page: nextPage, PerPage: perPage})
	}
	process := func(list *gh.ListRepositories) []models.Repository {
		var repos []models.Repository
		for _, repo := range list.Repositories {
			repos = append(repos, converter.Repository(repo))
		}
		return repos
	}
	repos, err := Iterate(ctx, run, process)
	if err != nil {
		return nil, errors.Wrap(err, "listing installation repositories")
	}
	return repos, nil
}

func (c *Client) GetInstallation(ctx context.Context, installationID int64) (models.Installation, error) {
	client, err := c.ClientCreator.NewAppClient()
	if err != nil {
		return models.Installation{}, errors.Wrap(err, "creating app client")
	}
	installation, _, err := client.Apps.GetInstallation(ctx, installationID)
	if err != nil {
		return models.Installation{}, errors.Wrap(err, "getting installation")
	}
	return models.Installation{
		ID:                installation.GetID(),
		OrganizationLogin: installation.GetAccount().GetLogin(),
	}, nil
}
