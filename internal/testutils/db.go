package testutils

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opendeploy/versioning/internal/model"
	"github.com/opendeploy/versioning/internal/repo"
)

// activeSlotIndex enforces the at-most-one-active-row-per-slot invariant at
// the storage layer. AutoMigrate cannot express partial indexes, so the test
// database creates it by hand; the production schema carries the same index
// in the goose migrations.
const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_deployments_active_slot
ON deployments (environment, data_center, application, stripe, instance) WHERE is_active`

// activeArtifactIndex keeps at most one active artifact row per (group,
// name) across rebinds to different artifactories.
const activeArtifactIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_active_group_name
ON artifacts (group_name, name) WHERE is_active`

// activeArtifactBindingIndex covers active rows only; deactivated history
// rows may repeat the same binding, so re-registering retired coordinates
// never collides.
const activeArtifactBindingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_group_name_artifactory
ON artifacts (group_name, name, artifactory_id) WHERE is_active`

// NewTestDB opens an isolated in-memory database migrated with every model.
// Intended for unit tests; integration tests run against Postgres.
func NewTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)

	// A fresh connection would see a fresh empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(tb, db.AutoMigrate(
		&model.Image{},
		&model.Artifactory{},
		&model.Artifact{},
		&model.Configuration{},
		&model.Deployment{},
	))

	require.NoError(tb, db.Exec(activeSlotIndex).Error)
	require.NoError(tb, db.Exec(activeArtifactIndex).Error)
	require.NoError(tb, db.Exec(activeArtifactBindingIndex).Error)

	return db
}

func CreateTestEntities(ctx context.Context, tb testing.TB, r repo.Repo, entities ...repo.Resource) {
	tb.Helper()

	for _, e := range entities {
		err := r.Create(ctx, e)
		assert.NoError(tb, err)
	}
}
