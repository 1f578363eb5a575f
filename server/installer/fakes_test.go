package installer_test

import (
	"context"
	"sync"

	"github.com/jfrog/frogbot-installer/server/models"
)

type upload struct {
	Path    string
	Message string
	Branch  string
}

type pullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

type testGateway struct {
	mu sync.Mutex

	defaultBranch   string
	maintainers     []int64
	teams           []models.Team
	teamPermissions map[string]models.TeamPermission

	getRepoErr     error
	enableErr      error
	permissionsErr error
	teamCheckErr   error
	environmentErr error
	headShaErr     error
	createRefErr   error
	uploadErrs     map[string]error
	pullRequestErr error

	calls        []string
	reviewers    []models.Reviewer
	environment  string
	createdRef   string
	createdSha   string
	uploads      []upload
	pullRequests []pullRequest
}

func newTestGateway() *testGateway {
	return &testGateway{
		defaultBranch:   "main",
		teamPermissions: map[string]models.TeamPermission{},
		uploadErrs:      map[string]error{},
	}
}

func (g *testGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *testGateway) called(call string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (g *testGateway) GetRepo(ctx context.Context, owner string, repo string) (string, error) {
	g.record("GetRepo")
	return g.defaultBranch, g.getRepoErr
}

func (g *testGateway) EnableWorkflows(ctx context.Context, owner string, repo string) error {
	g.record("EnableWorkflows")
	return g.enableErr
}

func (g *testGateway) SetDefaultWorkflowPermissions(ctx context.Context, owner string, repo string) error {
	g.record("SetDefaultWorkflowPermissions")
	return g.permissionsErr
}

func (g *testGateway) ListMaintainers(ctx context.Context, owner string, repo string) ([]int64, error) {
	g.record("ListMaintainers")
	return g.maintainers, nil
}

func (g *testGateway) ListOrgTeams(ctx context.Context, org string) ([]models.Team, error) {
	g.record("ListOrgTeams")
	return g.teams, nil
}

func (g *testGateway) CheckTeamRepoPermission(ctx context.Context, org string, teamSlug string, owner string, repo string) (models.TeamPermission, error) {
	g.record("CheckTeamRepoPermission")
	if g.teamCheckErr != nil {
		return models.TeamPermission{}, g.teamCheckErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.teamPermissions[teamSlug], nil
}

func (g *testGateway) CreateOrUpdateEnvironment(ctx context.Context, owner string, repo string, name string, reviewers []models.Reviewer) error {
	g.record("CreateOrUpdateEnvironment")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.environment = name
	g.reviewers = reviewers
	return g.environmentErr
}

func (g *testGateway) GetBranchHeadSha(ctx context.Context, owner string, repo string, branch string) (string, error) {
	g.record("GetBranchHeadSha")
	return "sha-" + branch, g.headShaErr
}

func (g *testGateway) CreateBranch(ctx context.Context, owner string, repo string, branch string, sha string) error {
	g.record("CreateBranch")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createdRef = branch
	g.createdSha = sha
	return g.createRefErr
}

func (g *testGateway) PutFileContents(ctx context.Context, owner string, repo string, path string, message string, content []byte, branch string) error {
	g.record("PutFileContents")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploads = append(g.uploads, upload{Path: path, Message: message, Branch: branch})
	return g.uploadErrs[path]
}

func (g *testGateway) CreatePullRequest(ctx context.Context, owner string, repo string, title string, head string, base string, body string) (string, error) {
	g.record("CreatePullRequest")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pullRequests = append(g.pullRequests, pullRequest{Title: title, Head: head, Base: base, Body: body})
	if g.pullRequestErr != nil {
		return "", g.pullRequestErr
	}
	return "https://github.com/" + owner + "/" + repo + "/pull/1", nil
}

type testProgress struct {
	mu     sync.Mutex
	keys   []string
	events []models.ProgressEvent
}

func (p *testProgress) Send(sessionKey string, event models.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, sessionKey)
	p.events = append(p.events, event)
}
