package setup

import "fmt"

const (
	credentialValidationMessage = "error validating credentials. Please make sure your credentials are correct"
	setupMessage                = "Error during setup"
)

// CredentialValidationError means the platform rejected the URL/token pair.
type CredentialValidationError struct {
	Err error
}

func (e *CredentialValidationError) Error() string {
	return fmt.Sprintf("%s: %s", credentialValidationMessage, e.Err)
}

func (e *CredentialValidationError) Unwrap() error {
	return e.Err
}

// SetupError is any failure before repositories are installed onto.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %s", setupMessage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
