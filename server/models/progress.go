package models

import (
	"encoding/json"
)

type Stage int

const (
	ValidatingCredentials Stage = iota
	AddingGlobalSecrets
	InstallingFrogbot
	FrogbotInstalled
)

func (s Stage) String() string {
	switch s {
	case ValidatingCredentials:
		return "Validating credentials"
	case AddingGlobalSecrets:
		return "Adding global secrets"
	case InstallingFrogbot:
		return "Installing Frogbot"
	case FrogbotInstalled:
		return "Frogbot installed"
	}
	return "Unknown"
}

// ProgressEvent is pushed to the client watching a setup session.
// Total is only meaningful for InstallingFrogbot, RepositoryName only for
// FrogbotInstalled.
type ProgressEvent struct {
	Stage          Stage
	Total          int
	RepositoryName string
}

func ValidatingCredentialsEvent() ProgressEvent {
	return ProgressEvent{Stage: ValidatingCredentials}
}

func AddingGlobalSecretsEvent() ProgressEvent {
	return ProgressEvent{Stage: AddingGlobalSecrets}
}

func InstallingFrogbotEvent(total int) ProgressEvent {
	return ProgressEvent{Stage: InstallingFrogbot, Total: total}
}

func FrogbotInstalledEvent(repositoryName string) ProgressEvent {
	return ProgressEvent{Stage: FrogbotInstalled, RepositoryName: repositoryName}
}

func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	payload := map[string]interface{}{
		"status": e.Stage.String(),
	}
	switch e.Stage {
	case InstallingFrogbot:
		payload["total"] = e.Total
	case FrogbotInstalled:
		payload["repo"] = e.RepositoryName
	}
	return json.Marshal(payload)
}
