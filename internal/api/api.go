// Package api holds the wire types of the versioning HTTP surface.
package api

import "time"

// Version is the snapshot of one active deployment.
type Version struct {
	Environment string `json:"environment"`
	DataCenter  string `json:"dataCenter"`
	Application string `json:"application"`
	Stripe      string `json:"stripe"`
	Instance    string `json:"instance"`

	ImageName    string `json:"imageName"`
	ImageVersion string `json:"imageVersion"`

	ArtifactGroup   string `json:"artifactGroup"`
	ArtifactName    string `json:"artifactName"`
	ArtifactVersion string `json:"artifactVersion"`

	GitRepository        string `json:"gitRepository"`
	ConfigurationVersion string `json:"configurationVersion"`

	// DownloadURI is resolved best-effort against the bound artifactory and
	// absent when resolution fails.
	DownloadURI *string `json:"downloadUri,omitempty"`

	EffectiveUsername string    `json:"effectiveUsername"`
	EffectiveUTC      time.Time `json:"effectiveUtc"`
}

// HistoryEntry is one row of a slot's append-only history.
type HistoryEntry struct {
	ImageVersion         string `json:"imageVersion"`
	ArtifactVersion      string `json:"artifactVersion"`
	ConfigurationVersion string `json:"configurationVersion"`

	IsActive bool `json:"isActive"`

	EffectiveUsername string    `json:"effectiveUsername"`
	EffectiveUTC      time.Time `json:"effectiveUtc"`

	DeactivatedUsername *string    `json:"deactivatedUsername,omitempty"`
	DeactivatedUTC      *time.Time `json:"deactivatedUtc,omitempty"`
}

// CreateVersionRequest is the full assignment bound on POST.
type CreateVersionRequest struct {
	ImageName            string `json:"imageName"`
	ImageVersion         string `json:"imageVersion"`
	ArtifactGroup        string `json:"artifactGroup"`
	ArtifactName         string `json:"artifactName"`
	ArtifactVersion      string `json:"artifactVersion"`
	GitRepository        string `json:"gitRepository"`
	ConfigurationVersion string `json:"configurationVersion"`
}

// UpgradeVersionRequest carries the optional version overrides of PATCH.
type UpgradeVersionRequest struct {
	ImageVersion         *string `json:"imageVersion,omitempty"`
	ArtifactVersion      *string `json:"artifactVersion,omitempty"`
	ConfigurationVersion *string `json:"configurationVersion,omitempty"`
}

// Artifact is the active binding of a published package to an artifactory.
type Artifact struct {
	Group   string `json:"group"`
	Name    string `json:"name"`
	BaseURI string `json:"baseUri"`

	EffectiveUsername string    `json:"effectiveUsername"`
	EffectiveUTC      time.Time `json:"effectiveUtc"`
}

// BindArtifactRequest names the artifactory an artifact binds to; empty
// means the configured default.
type BindArtifactRequest struct {
	BaseURI string `json:"baseUri"`
}

// SwitchArtifactoryResponse reports the new binding and how many active
// deployments were re-pointed by the cascade.
type SwitchArtifactoryResponse struct {
	Artifact Artifact `json:"artifact"`

	RepointedDeployments int `json:"repointedDeployments"`
}

// ErrorMessage is the error envelope of every non-2xx response.
type ErrorMessage struct {
	Error DetailedError `json:"error"`
}

type DetailedError struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Status    int     `json:"status"`
	RequestID *string `json:"requestId,omitempty"`
}
