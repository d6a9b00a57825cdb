package model

import (
	"github.com/google/uuid"
)

// Configuration is a deduplicated configuration source, identified by its
// git repository URL.
type Configuration struct {
	AuditStamp

	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	GitRepository string    `gorm:"type:varchar(255);not null;unique"`
}

func (Configuration) TableName() string {
	return "configurations"
}
