package model

import (
	"time"

	"github.com/google/uuid"
)

// DeploymentKey identifies one deployable slot. At most one Deployment row
// per key is active at any instant; that invariant is backed by a partial
// unique index on these columns where is_active.
type DeploymentKey struct {
	Environment string `gorm:"type:varchar(4);not null;index:idx_deployments_slot,priority:1"`
	DataCenter  string `gorm:"type:varchar(3);not null;index:idx_deployments_slot,priority:2"`
	Application string `gorm:"type:varchar(255);not null;index:idx_deployments_slot,priority:3"`
	Stripe      string `gorm:"type:varchar(25);not null;index:idx_deployments_slot,priority:4"`
	Instance    string `gorm:"type:varchar(25);not null;index:idx_deployments_slot,priority:5"`
}

// Deployment is the versioned assignment of {image, artifact, configuration}
// to a slot. Rows are append-only: every change deactivates the current row
// and inserts a successor, never edits in place.
type Deployment struct {
	AuditStamp
	DeactivationStamp

	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DeploymentKey `gorm:"embedded"`

	ImageID      uuid.UUID `gorm:"type:uuid;not null"`
	Image        Image     `gorm:"foreignKey:ImageID"`
	ImageVersion string    `gorm:"type:varchar(255);not null"`

	ArtifactID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Artifact        Artifact  `gorm:"foreignKey:ArtifactID"`
	ArtifactVersion string    `gorm:"type:varchar(255);not null"`

	ConfigurationID      uuid.UUID     `gorm:"type:uuid;not null"`
	Configuration        Configuration `gorm:"foreignKey:ConfigurationID"`
	ConfigurationVersion string        `gorm:"type:varchar(255);not null"`
}

func (Deployment) TableName() string {
	return "deployments"
}

// Changes describes the facets a supersession overrides. Nil fields carry
// the current value forward unchanged.
type Changes struct {
	ImageVersion         *string
	ArtifactVersion      *string
	ConfigurationVersion *string

	ImageID         *uuid.UUID
	ArtifactID      *uuid.UUID
	ConfigurationID *uuid.UUID
}

// IsNoop reports whether applying the changes to old would produce a row
// identical in business fields. Version comparison is plain string equality.
func (c Changes) IsNoop(old Deployment) bool {
	if c.ImageVersion != nil && *c.ImageVersion != old.ImageVersion {
		return false
	}

	if c.ArtifactVersion != nil && *c.ArtifactVersion != old.ArtifactVersion {
		return false
	}

	if c.ConfigurationVersion != nil && *c.ConfigurationVersion != old.ConfigurationVersion {
		return false
	}

	if c.ImageID != nil && *c.ImageID != old.ImageID {
		return false
	}

	if c.ArtifactID != nil && *c.ArtifactID != old.ArtifactID {
		return false
	}

	if c.ConfigurationID != nil && *c.ConfigurationID != old.ConfigurationID {
		return false
	}

	return true
}

// Supersede is the core clone primitive: it returns a brand-new active row
// carrying all of old's business fields with the requested overrides applied
// and a fresh audit stamp. The caller owns the atomic deactivate-old /
// insert-new pair; old is never mutated here.
func Supersede(old Deployment, changes Changes, actor string, ts time.Time) Deployment {
	next := Deployment{
		AuditStamp:        NewAuditStamp(actor, ts),
		DeactivationStamp: DeactivationStamp{IsActive: true},

		ID: uuid.New(),

		DeploymentKey: old.DeploymentKey,

		ImageID:      old.ImageID,
		ImageVersion: old.ImageVersion,

		ArtifactID:      old.ArtifactID,
		ArtifactVersion: old.ArtifactVersion,

		ConfigurationID:      old.ConfigurationID,
		ConfigurationVersion: old.ConfigurationVersion,
	}

	if changes.ImageVersion != nil {
		next.ImageVersion = *changes.ImageVersion
	}

	if changes.ArtifactVersion != nil {
		next.ArtifactVersion = *changes.ArtifactVersion
	}

	if changes.ConfigurationVersion != nil {
		next.ConfigurationVersion = *changes.ConfigurationVersion
	}

	if changes.ImageID != nil {
		next.ImageID = *changes.ImageID
		next.Image = Image{}
	}

	if changes.ArtifactID != nil {
		next.ArtifactID = *changes.ArtifactID
		next.Artifact = Artifact{}
	}

	if changes.ConfigurationID != nil {
		next.ConfigurationID = *changes.ConfigurationID
		next.Configuration = Configuration{}
	}

	return next
}
