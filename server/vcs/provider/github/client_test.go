package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v45/github"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/vcs/provider/github"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClientCreator struct {
	githubapp.ClientCreator
	client         *gh.Client
	installationID int64
}

func (c *testClientCreator) NewInstallationClient(installationID int64) (*gh.Client, error) {
	c.installationID = installationID
	return c.client, nil
}

func (c *testClientCreator) NewAppClient() (*gh.Client, error) {
	return c.client, nil
}

func setup(t *testing.T, handler http.Handler) (*github.Client, *testClientCreator) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := gh.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	creator := &testClientCreator{client: client}
	return &github.Client{ClientCreator: creator, InstallationID: 1}, creator
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

func readJSON(t *testing.T, r *http.Request) map[string]interface{} {
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

func TestClient_GetRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"default_branch": "develop"})
	})
	mux.HandleFunc("/repos/acme/empty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{})
	})
	client, creator := setup(t, mux)

	branch, err := client.GetRepo(context.Background(), "acme", "api")
	assert.NoError(t, err)
	assert.Equal(t, "develop", branch)
	assert.Equal(t, int64(1), creator.installationID)

	_, err = client.GetRepo(context.Background(), "acme", "empty")
	assert.Error(t, err)
}

func TestClient_WorkflowPermissions(t *testing.T) {
	var calls []string
	var bodies []map[string]interface{}
	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		bodies = append(bodies, readJSON(t, r))
		w.WriteHeader(http.StatusNoContent)
	}
	mux.HandleFunc("/repos/acme/api/actions/permissions", handler)
	mux.HandleFunc("/repos/acme/api/actions/permissions/workflow", handler)
	mux.HandleFunc("/orgs/acme/actions/permissions", handler)
	mux.HandleFunc("/orgs/acme/actions/permissions/workflow", handler)
	client, _ := setup(t, mux)
	ctx := context.Background()

	assert.NoError(t, client.EnableWorkflows(ctx, "acme", "api"))
	assert.NoError(t, client.SetDefaultWorkflowPermissions(ctx, "acme", "api"))
	assert.NoError(t, client.EnableOrgWorkflows(ctx, "acme"))
	assert.NoError(t, client.SetOrgDefaultWorkflowPermissions(ctx, "acme"))

	assert.Equal(t, []string{
		"PUT /repos/acme/api/actions/permissions",
		"PUT /repos/acme/api/actions/permissions/workflow",
		"PUT /orgs/acme/actions/permissions",
		"PUT /orgs/acme/actions/permissions/workflow",
	}, calls)
	assert.Equal(t, true, bodies[0]["enabled"])
	assert.Equal(t, "all", bodies[0]["allowed_actions"])
	assert.Equal(t, "write", bodies[1]["default_workflow_permissions"])
	assert.Equal(t, true, bodies[1]["can_approve_pull_request_reviews"])
	assert.Equal(t, "all", bodies[2]["enabled_repositories"])
	assert.Equal(t, bodies[1], bodies[3])
}

func TestClient_WorkflowPermissions_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/actions/permissions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]interface{}{"message": "Resource not accessible by integration"})
	})
	client, _ := setup(t, mux)

	err := client.EnableWorkflows(context.Background(), "acme", "api")
	assert.ErrorContains(t, err, "PUT repos/acme/api/actions/permissions")
}

func TestClient_ListMaintainers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/collaborators", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "direct", r.URL.Query().Get("affiliation"))
		assert.Equal(t, "maintain", r.URL.Query().Get("permission"))
		writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"id": 10}, {"id": 11}})
	})
	client, _ := setup(t, mux)

	ids, err := client.ListMaintainers(context.Background(), "acme", "api")
	assert.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)
}

func TestClient_ListOrgTeams(t *testing.T) {
	t.Run("organization", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/orgs/acme/teams", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"id": 1, "slug": "core"}})
		})
		client, _ := setup(t, mux)

		teams, err := client.ListOrgTeams(context.Background(), "acme")
		assert.NoError(t, err)
		assert.Equal(t, []models.Team{{ID: 1, Slug: "core"}}, teams)
	})

	t.Run("user account", func(t *testing.T) {
		client, _ := setup(t, http.NewServeMux())

		teams, err := client.ListOrgTeams(context.Background(), "octocat")
		assert.NoError(t, err)
		assert.Empty(t, teams)
	})
}

func TestClient_CheckTeamRepoPermission(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/teams/core/repos/acme/api", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"permissions": map[string]bool{"admin": false, "maintain": true, "push": true},
		})
	})
	client, _ := setup(t, mux)

	permission, err := client.CheckTeamRepoPermission(context.Background(), "acme", "core", "acme", "api")
	assert.NoError(t, err)
	assert.Equal(t, models.TeamPermission{Maintain: true}, permission)

	permission, err = client.CheckTeamRepoPermission(context.Background(), "acme", "outsiders", "acme", "api")
	assert.NoError(t, err)
	assert.False(t, permission.CanReview())
}

func TestClient_CreateOrUpdateEnvironment(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/environments/frogbot", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body = readJSON(t, r)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"name": "frogbot"})
	})
	client, _ := setup(t, mux)

	err := client.CreateOrUpdateEnvironment(context.Background(), "acme", "api", "frogbot", []models.Reviewer{
		{Type: models.UserReviewer, ID: 10},
		{Type: models.TeamReviewer, ID: 3},
	})
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"type": "User", "id": float64(10)},
		map[string]interface{}{"type": "Team", "id": float64(3)},
	}, body["reviewers"])
}

func TestClient_Branch(t *testing.T) {
	var created map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"ref":    "refs/heads/main",
			"object": map[string]string{"sha": "abc123"},
		})
	})
	mux.HandleFunc("/repos/acme/api/git/refs", func(w http.ResponseWriter, r *http.Request) {
		created = readJSON(t, r)
		writeJSON(t, w, http.StatusCreated, created)
	})
	client, _ := setup(t, mux)
	ctx := context.Background()

	sha, err := client.GetBranchHeadSha(ctx, "acme", "api", "main")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", sha)

	assert.NoError(t, client.CreateBranch(ctx, "acme", "api", "frogbot-branch", sha))
	assert.Equal(t, "refs/heads/frogbot-branch", created["ref"])
	assert.Equal(t, "abc123", created["sha"])
}

func TestClient_PutFileContents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/contents/.github/workflows/new.yml", func(w http.ResponseWriter, r *http.Request) {
		body := readJSON(t, r)
		assert.Equal(t, "b24gcHVzaA==", body["content"])
		assert.Equal(t, "frogbot-branch", body["branch"])
		writeJSON(t, w, http.StatusCreated, map[string]interface{}{})
	})
	mux.HandleFunc("/repos/acme/api/contents/.github/workflows/existing.yml", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]interface{}{"message": `Invalid request. "sha" wasn't supplied.`})
	})
	mux.HandleFunc("/repos/acme/api/contents/.github/workflows/broken.yml", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]interface{}{"message": "oops"})
	})
	client, _ := setup(t, mux)
	ctx := context.Background()

	err := client.PutFileContents(ctx, "acme", "api", ".github/workflows/new.yml", "add", []byte("on push"), "frogbot-branch")
	assert.NoError(t, err)

	err = client.PutFileContents(ctx, "acme", "api", ".github/workflows/existing.yml", "add", []byte("x"), "frogbot-branch")
	var conflict *models.ConflictError
	assert.True(t, errors.As(err, &conflict))

	err = client.PutFileContents(ctx, "acme", "api", ".github/workflows/broken.yml", "add", []byte("x"), "frogbot-branch")
	assert.Error(t, err)
	assert.False(t, errors.As(err, &conflict))
}

func TestClient_CreatePullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls", func(w http.ResponseWriter, r *http.Request) {
		body := readJSON(t, r)
		assert.Equal(t, "Added Frogbot configurations", body["title"])
		assert.Equal(t, "frogbot-branch", body["head"])
		assert.Equal(t, "main", body["base"])
		writeJSON(t, w, http.StatusCreated, map[string]interface{}{"html_url": "https://github.com/acme/api/pull/4"})
	})
	client, _ := setup(t, mux)

	link, err := client.CreatePullRequest(context.Background(), "acme", "api", "Added Frogbot configurations", "frogbot-branch", "main", "body")
	assert.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/api/pull/4", link)
}

func TestClient_CreatePullRequestWithoutURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]interface{}{"number": 4})
	})
	client, _ := setup(t, mux)

	link, err := client.CreatePullRequest(context.Background(), "acme", "api", "Added Frogbot configurations", "frogbot-branch", "main", "body")
	assert.ErrorContains(t, err, "pull request #4 has no html url")
	assert.Empty(t, link)
}

func TestClient_DispatchWorkflow(t *testing.T) {
	var ref string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/actions/workflows/frogbot-scan-repository.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		ref = readJSON(t, r)["ref"].(string)
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := setup(t, mux)

	assert.NoError(t, client.DispatchWorkflow(context.Background(), "acme", "api", "frogbot-scan-repository.yml", "main"))
	assert.Equal(t, "main", ref)
}

func TestClient_OrgSecrets(t *testing.T) {
	var upserted map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/actions/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"key_id": "kid", "key": "pub"})
	})
	mux.HandleFunc("/orgs/acme/actions/secrets/JF_URL", func(w http.ResponseWriter, r *http.Request) {
		upserted = readJSON(t, r)
		w.WriteHeader(http.StatusCreated)
	})
	client, _ := setup(t, mux)
	ctx := context.Background()

	key, err := client.GetOrgPublicKey(ctx, "acme")
	assert.NoError(t, err)
	assert.Equal(t, models.OrgPublicKey{KeyID: "kid", Key: "pub"}, key)

	err = client.UpsertOrgSecret(ctx, "acme", models.EncryptedSecret{
		Name:           "JF_URL",
		EncryptedValue: "sealed",
		KeyID:          "kid",
		Visibility:     "all",
	})
	assert.NoError(t, err)
	assert.Equal(t, "sealed", upserted["encrypted_value"])
	assert.Equal(t, "kid", upserted["key_id"])
	assert.Equal(t, "all", upserted["visibility"])
}

func TestClient_ListInstallationRepos(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/installation/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%sinstallation/repositories?page=2>; rel="next"`, serverURL))
			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"total_count":  2,
				"repositories": []map[string]interface{}{{"full_name": "acme/a", "name": "a"}},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"total_count":  2,
			"repositories": []map[string]interface{}{{"full_name": "acme/b", "name": "b", "private": true}},
		})
	})
	client, creator := setup(t, mux)
	serverURL = creator.client.BaseURL.String()

	repos, err := client.ListInstallationRepos(context.Background(), 99)
	assert.NoError(t, err)
	assert.Equal(t, int64(99), creator.installationID)
	assert.Equal(t, []models.Repository{
		{FullName: "acme/a", Name: "a"},
		{FullName: "acme/b", Name: "b", Private: true},
	}, repos)
}

func TestClient_GetInstallation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app/installations/99", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"id":      99,
			"account": map[string]string{"login": "acme"},
		})
	})
	client, _ := setup(t, mux)

	installation, err := client.GetInstallation(context.Background(), 99)
	assert.NoError(t, err)
	assert.Equal(t, models.Installation{ID: 99, OrganizationLogin: "acme"}, installation)
}
