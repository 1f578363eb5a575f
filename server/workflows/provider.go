// Package workflows renders the files an installation commits and the body of
// the pull request that proposes them.
package workflows

import (
	"bytes"
	"text/template"

	_ "embed" // embedding files

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

const (
	ScanRepositoryPath  = ".github/workflows/frogbot-scan-repository.yml"
	ScanPullRequestPath = ".github/workflows/frogbot-scan-pull-request.yml"

	// ScanRepositoryWorkflow is the workflow file name used for dispatches.
	ScanRepositoryWorkflow = "frogbot-scan-repository.yml"

	Environment       = "frogbot"
	PullRequestTitle  = "Added Frogbot configurations"
	leftDelim         = "[["
	rightDelim        = "]]"
	scanRepositoryKey = "scan_repository"
)

//go:embed templates/frogbot-scan-repository.yml.tmpl
var scanRepositoryTemplate string

//go:embed templates/frogbot-scan-pull-request.yml.tmpl
var scanPullRequestTemplate string

//go:embed templates/pull_request_body.md.tmpl
var defaultPullRequestBodyTemplate string

// File is a single file to commit to the installation branch.
type File struct {
	Path    string
	Content []byte
}

type data struct {
	Repository          string
	DefaultBranch       string
	Environment         string
	ScanRepositoryPath  string
	ScanPullRequestPath string
}

// Provider holds the parsed templates. It is safe for concurrent use.
type Provider struct {
	scanRepository  *template.Template
	scanPullRequest *template.Template
	pullRequestBody *template.Template
}

// NewProvider parses the embedded templates. An empty pullRequestBody selects
// the embedded default body.
func NewProvider(pullRequestBody string) (*Provider, error) {
	if pullRequestBody == "" {
		pullRequestBody = defaultPullRequestBodyTemplate
	}

	scanRepository, err := parse(scanRepositoryKey, scanRepositoryTemplate)
	if err != nil {
		return nil, err
	}
	scanPullRequest, err := parse("scan_pull_request", scanPullRequestTemplate)
	if err != nil {
		return nil, err
	}
	body, err := parse("pull_request_body", pullRequestBody)
	if err != nil {
		return nil, err
	}

	return &Provider{
		scanRepository:  scanRepository,
		scanPullRequest: scanPullRequest,
		pullRequestBody: body,
	}, nil
}

func parse(name string, text string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Delims(leftDelim, rightDelim).
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s template", name)
	}
	return tmpl, nil
}

// Files returns the scan-repository and scan-pull-request workflows, in that
// order.
func (p *Provider) Files(repository string, defaultBranch string) ([]File, error) {
	d := newData(repository, defaultBranch)

	scanRepository, err := render(p.scanRepository, d)
	if err != nil {
		return nil, err
	}
	scanPullRequest, err := render(p.scanPullRequest, d)
	if err != nil {
		return nil, err
	}

	return []File{
		{Path: ScanRepositoryPath, Content: scanRepository},
		{Path: ScanPullRequestPath, Content: scanPullRequest},
	}, nil
}

func (p *Provider) PullRequestBody(repository string, defaultBranch string) (string, error) {
	body, err := render(p.pullRequestBody, newData(repository, defaultBranch))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func newData(repository string, defaultBranch string) data {
	return data{
		Repository:          repository,
		DefaultBranch:       defaultBranch,
		Environment:         Environment,
		ScanRepositoryPath:  ScanRepositoryPath,
		ScanPullRequestPath: ScanPullRequestPath,
	}
}

func render(tmpl *template.Template, d data) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, d); err != nil {
		return nil, errors.Wrapf(err, "rendering %s template", tmpl.Name())
	}
	return buf.Bytes(), nil
}
