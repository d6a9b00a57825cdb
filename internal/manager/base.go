package manager

import (
	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/repo"
)

// Manager aggregates the per-entity managers sharing one repository.
type Manager struct {
	References  *ReferenceManager
	Deployments *DeploymentManager
	Artifacts   *ArtifactManager
}

func New(r repo.Repo, cfg *config.Config) *Manager {
	references := NewReferenceManager(r, cfg.Artifactory.DefaultBaseURI)

	return &Manager{
		References:  references,
		Deployments: NewDeploymentManager(r, references),
		Artifacts:   NewArtifactManager(r, references),
	}
}
