// Package transform converts storage rows into API wire types.
package transform

import (
	"github.com/opendeploy/versioning/internal/api"
	"github.com/opendeploy/versioning/internal/model"
)

// ToVersion builds the snapshot of an active deployment. downloadURI is nil
// when resolution was skipped or failed.
func ToVersion(deployment model.Deployment, downloadURI *string) api.Version {
	return api.Version{
		Environment: deployment.Environment,
		DataCenter:  deployment.DataCenter,
		Application: deployment.Application,
		Stripe:      deployment.Stripe,
		Instance:    deployment.Instance,

		ImageName:    deployment.Image.Name,
		ImageVersion: deployment.ImageVersion,

		ArtifactGroup:   deployment.Artifact.Group,
		ArtifactName:    deployment.Artifact.Name,
		ArtifactVersion: deployment.ArtifactVersion,

		GitRepository:        deployment.Configuration.GitRepository,
		ConfigurationVersion: deployment.ConfigurationVersion,

		DownloadURI: downloadURI,

		EffectiveUsername: deployment.EffectiveUsername,
		EffectiveUTC:      deployment.EffectiveUTC,
	}
}

// ToHistory maps the slot's rows in the order they were given.
func ToHistory(deployments []model.Deployment) []api.HistoryEntry {
	entries := make([]api.HistoryEntry, len(deployments))

	for i, d := range deployments {
		entries[i] = api.HistoryEntry{
			ImageVersion:         d.ImageVersion,
			ArtifactVersion:      d.ArtifactVersion,
			ConfigurationVersion: d.ConfigurationVersion,

			IsActive: d.IsActive,

			EffectiveUsername: d.EffectiveUsername,
			EffectiveUTC:      d.EffectiveUTC,

			DeactivatedUsername: d.DeactivatedUsername,
			DeactivatedUTC:      d.DeactivatedUTC,
		}
	}

	return entries
}

func ToArtifact(artifact model.Artifact) api.Artifact {
	return api.Artifact{
		Group:   artifact.Group,
		Name:    artifact.Name,
		BaseURI: artifact.Artifactory.BaseURI,

		EffectiveUsername: artifact.EffectiveUsername,
		EffectiveUTC:      artifact.EffectiveUTC,
	}
}
