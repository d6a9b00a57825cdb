package model

import (
	"github.com/google/uuid"
)

// Image is a deduplicated software image catalog row. Images are never
// retired, only referenced differently, so there is no deactivation stamp.
type Image struct {
	AuditStamp

	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(255);not null;unique"`
}

func (Image) TableName() string {
	return "images"
}
