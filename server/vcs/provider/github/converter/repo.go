package converter

import (
	"github.com/jfrog/frogbot-installer/server/models"
)

type externalRepo interface {
	GetFullName() string
	GetName() string
	GetPrivate() bool
}

// Repository converts a github repository, as found in API responses and
// webhook payloads, to our internal model.
func Repository(ghRepo externalRepo) models.Repository {
	return models.Repository{
		FullName: ghRepo.GetFullName(),
		Name:     ghRepo.GetName(),
		Private:  ghRepo.GetPrivate(),
	}
}
