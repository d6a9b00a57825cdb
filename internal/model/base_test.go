package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opendeploy/versioning/internal/model"
)

func TestDeactivationStamp(t *testing.T) {
	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	t.Run("Deactivate sets both fields and clears the flag", func(t *testing.T) {
		stamp := model.DeactivationStamp{IsActive: true}

		changed := stamp.Deactivate("alice", first)

		assert.True(t, changed)
		assert.False(t, stamp.IsActive)
		assert.Equal(t, "alice", *stamp.DeactivatedUsername)
		assert.Equal(t, first, *stamp.DeactivatedUTC)
	})

	t.Run("Second deactivation never overwrites the first stamp", func(t *testing.T) {
		stamp := model.DeactivationStamp{IsActive: true}

		stamp.Deactivate("alice", first)
		changed := stamp.Deactivate("bob", second)

		assert.False(t, changed)
		assert.Equal(t, "alice", *stamp.DeactivatedUsername)
		assert.Equal(t, first, *stamp.DeactivatedUTC)
	})

	t.Run("Activate clears deactivation fields", func(t *testing.T) {
		stamp := model.DeactivationStamp{IsActive: true}
		stamp.Deactivate("alice", first)

		stamp.Activate()

		assert.True(t, stamp.IsActive)
		assert.Nil(t, stamp.DeactivatedUsername)
		assert.Nil(t, stamp.DeactivatedUTC)
	})
}

func TestNewAuditStamp(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2025, 3, 1, 7, 0, 0, 0, loc)

	stamp := model.NewAuditStamp("alice", ts)

	assert.Equal(t, "alice", stamp.EffectiveUsername)
	assert.Equal(t, time.UTC, stamp.EffectiveUTC.Location())
	assert.True(t, stamp.EffectiveUTC.Equal(ts))
}
