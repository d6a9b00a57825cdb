package model

import (
	"github.com/google/uuid"
)

// Artifactory is a binary repository location, identified by its base URI.
type Artifactory struct {
	AuditStamp
	DeactivationStamp

	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	BaseURI string    `gorm:"type:varchar(255);not null;unique"`
}

func (Artifactory) TableName() string {
	return "artifactories"
}
