package models

import (
	"encoding/json"
	"errors"
)

// ErrUnknownFailure stands in for a nil error passed to Failed.
var ErrUnknownFailure = errors.New("failed to install Frogbot")

// InstallationOutcome is either a success carrying the pull request URL or a
// failure carrying the error. The zero value is neither and is never
// produced by the installer.
type InstallationOutcome struct {
	repositoryName string
	pullRequestURL string
	err            error
}

func Succeeded(repositoryName string, pullRequestURL string) InstallationOutcome {
	return InstallationOutcome{
		repositoryName: repositoryName,
		pullRequestURL: pullRequestURL,
	}
}

// Failed always yields a failure, a nil err is replaced by ErrUnknownFailure.
func Failed(repositoryName string, err error) InstallationOutcome {
	if err == nil {
		err = ErrUnknownFailure
	}
	return InstallationOutcome{
		repositoryName: repositoryName,
		err:            err,
	}
}

func (o InstallationOutcome) RepositoryName() string {
	return o.repositoryName
}

// PullRequestURL is empty for failed outcomes.
func (o InstallationOutcome) PullRequestURL() string {
	return o.pullRequestURL
}

// Err is nil for successful outcomes.
func (o InstallationOutcome) Err() error {
	return o.err
}

func (o InstallationOutcome) IsFailure() bool {
	return o.err != nil
}

type outcomeJSON struct {
	RepoName     string `json:"repoName"`
	PRLink       string `json:"prLink,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (o InstallationOutcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{
		RepoName: o.repositoryName,
		PRLink:   o.pullRequestURL,
	}
	if o.err != nil {
		out.ErrorMessage = o.err.Error()
	}
	return json.Marshal(out)
}

// BatchResult is the outcome of installing onto a list of repositories, in
// input order.
type BatchResult struct {
	Outcomes  []InstallationOutcome
	IsPartial bool
}

func NewBatchResult(outcomes []InstallationOutcome) BatchResult {
	result := BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.IsFailure() {
			result.IsPartial = true
			break
		}
	}
	return result
}

func (r BatchResult) Failures() int {
	var n int
	for _, o := range r.Outcomes {
		if o.IsFailure() {
			n++
		}
	}
	return n
}

func (r BatchResult) MarshalJSON() ([]byte, error) {
	outcomes := r.Outcomes
	if outcomes == nil {
		outcomes = []InstallationOutcome{}
	}
	return json.Marshal(struct {
		Results   []InstallationOutcome `json:"results"`
		IsPartial bool                  `json:"isPartial"`
	}{
		Results:   outcomes,
		IsPartial: r.IsPartial,
	})
}
