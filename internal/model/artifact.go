package model

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is a published package identified by (group, name). The same
// logical artifact may exist as several rows over time, each bound to one
// artifactory. Uniqueness is enforced by partial indexes over the active
// rows only, so deactivated history rows may repeat the same coordinates
// and a retired artifact can be registered again.
type Artifact struct {
	AuditStamp
	DeactivationStamp

	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ArtifactoryID uuid.UUID   `gorm:"type:uuid;not null"`
	Artifactory   Artifactory `gorm:"foreignKey:ArtifactoryID"`
	// Column is group_name because "group" is a reserved word in most dialects.
	Group string `gorm:"column:group_name;type:varchar(255);not null;index:idx_artifacts_group_name,priority:1"`
	Name  string `gorm:"type:varchar(255);not null;index:idx_artifacts_group_name,priority:2"`
}

func (Artifact) TableName() string {
	return "artifacts"
}

// Rebind clones the artifact onto a different artifactory. The returned row
// is a brand-new active record; the receiver is left untouched.
func (a Artifact) Rebind(artifactoryID uuid.UUID, actor string, ts time.Time) Artifact {
	return Artifact{
		AuditStamp:        NewAuditStamp(actor, ts),
		DeactivationStamp: DeactivationStamp{IsActive: true},
		ID:                uuid.New(),
		ArtifactoryID:     artifactoryID,
		Group:             a.Group,
		Name:              a.Name,
	}
}
