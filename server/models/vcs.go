package models

// TeamPermission is what a team may do on a single repository.
type TeamPermission struct {
	Admin    bool
	Maintain bool
}

// CanReview reports whether members of the team may approve Frogbot runs.
func (p TeamPermission) CanReview() bool {
	return p.Admin || p.Maintain
}

type ReviewerType string

const (
	UserReviewer ReviewerType = "User"
	TeamReviewer ReviewerType = "Team"
)

type Reviewer struct {
	Type ReviewerType
	ID   int64
}

type Team struct {
	ID   int64
	Slug string
}

type OrgPublicKey struct {
	KeyID string
	Key   string
}

type EncryptedSecret struct {
	Name           string
	EncryptedValue string
	KeyID          string
	Visibility     string
}

// ConflictError is returned by a gateway when the resource being created is
// already present.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
