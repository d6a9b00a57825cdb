package model

import (
	"time"
)

// AuditStamp records who made a row effective and when. It is embedded by
// every catalog and deployment model; a persisted row is never edited, so
// the stamp is written exactly once.
type AuditStamp struct {
	EffectiveUsername string    `gorm:"type:varchar(16);not null"`
	EffectiveUTC      time.Time `gorm:"column:effective_utc;not null"`
}

// NewAuditStamp builds the stamp for a freshly constructed record. Actor and
// timestamp are required inputs on every transition; there is no default-now
// fallback.
func NewAuditStamp(actor string, ts time.Time) AuditStamp {
	return AuditStamp{
		EffectiveUsername: actor,
		EffectiveUTC:      ts.UTC(),
	}
}

// DeactivationStamp extends an audited row with a single, permanent
// deactivation event. IsActive == false iff both fields are set.
type DeactivationStamp struct {
	DeactivatedUsername *string    `gorm:"type:varchar(16)"`
	DeactivatedUTC      *time.Time `gorm:"column:deactivated_utc"`
	IsActive            bool       `gorm:"not null;default:true"`
}

// Deactivate marks the row inactive. It is a no-op when the row is already
// inactive, so a second call never overwrites the first stamp. Returns true
// if the state changed.
func (d *DeactivationStamp) Deactivate(actor string, ts time.Time) bool {
	if !d.IsActive {
		return false
	}

	utc := ts.UTC()
	d.DeactivatedUsername = &actor
	d.DeactivatedUTC = &utc
	d.IsActive = false

	return true
}

// Activate is used only on freshly constructed records, never to revive a
// stored inactive row in place.
func (d *DeactivationStamp) Activate() {
	d.DeactivatedUsername = nil
	d.DeactivatedUTC = nil
	d.IsActive = true
}
