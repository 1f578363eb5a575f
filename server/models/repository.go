// Package models holds the types that flow between the installer's
// components. None of them outlive a single request.
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Repository is a target repository as reported by the VCS host.
type Repository struct {
	// FullName is "<owner>/<name>".
	FullName string
	Name     string
	Private  bool
}

// Owner is everything before the first "/" of the full name.
func (r Repository) Owner() string {
	owner, _, _ := strings.Cut(r.FullName, "/")
	return owner
}

type Installation struct {
	ID                int64
	OrganizationLogin string
}

// PullRequestEvent is the subset of a pull request webhook the installer
// reacts to.
type PullRequestEvent struct {
	Repository     Repository
	InstallationID int64
	Action         string
	HeadRef        string
	BaseRef        string
	Merged         bool
}

// OrgSecret is never persisted; the plaintext only lives until it is sealed.
type OrgSecret struct {
	Name           string
	PlaintextValue string
}

const SourceBranchPrefix = "jfrog-github-app/add-frogbot-configurations"

// SourceBranchName is the branch a single installation attempt commits to.
type SourceBranchName string

// NewSourceBranchName returns a name that is unique per call.
func NewSourceBranchName() SourceBranchName {
	return SourceBranchName(fmt.Sprintf("%s-%s", SourceBranchPrefix, uuid.NewString()))
}

func (b SourceBranchName) String() string {
	return string(b)
}

// IsSourceBranch reports whether ref was created by an installation attempt.
func IsSourceBranch(ref string) bool {
	return strings.HasPrefix(strings.TrimPrefix(ref, "refs/heads/"), SourceBranchPrefix+"-")
}
