package sql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendeploy/versioning/internal/model"
	"github.com/opendeploy/versioning/internal/repo"
	"github.com/opendeploy/versioning/internal/repo/sql"
	"github.com/opendeploy/versioning/internal/testutils"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newImage(name string) *model.Image {
	return &model.Image{
		AuditStamp: model.NewAuditStamp("alice", testTime),
		ID:         uuid.New(),
		Name:       name,
	}
}

func TestCreate(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	t.Run("stores a resource", func(t *testing.T) {
		err := r.Create(ctx, newImage("img-a"))
		assert.NoError(t, err)
	})

	t.Run("maps duplicate natural key to ErrUniqueConstraint", func(t *testing.T) {
		require.NoError(t, r.Create(ctx, newImage("img-dup")))

		err := r.Create(ctx, newImage("img-dup"))
		assert.ErrorIs(t, err, repo.ErrUniqueConstraint)
	})
}

func TestFirst(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	created := newImage("img-b")
	require.NoError(t, r.Create(ctx, created))

	t.Run("finds by composite key", func(t *testing.T) {
		var found model.Image

		ok, err := r.First(ctx, &found, *repo.NewQuery().Where(
			repo.NewCompositeKey().Where(repo.NameField, "img-b"),
		))
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "alice", found.EffectiveUsername)
	})

	t.Run("missing row yields ErrNotFound", func(t *testing.T) {
		var found model.Image

		_, err := r.First(ctx, &found, *repo.NewQuery().Where(
			repo.NewCompositeKey().Where(repo.NameField, "img-missing"),
		))
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})
}

func TestListOrdering(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	for i, name := range []string{"img-1", "img-2", "img-3"} {
		img := newImage(name)
		img.EffectiveUTC = testTime.Add(time.Duration(i) * time.Minute)
		require.NoError(t, r.Create(ctx, img))
	}

	var images []model.Image

	count, err := r.List(ctx, model.Image{}, &images,
		*repo.NewQuery().OrderBy(repo.EffectiveUTCField, repo.Desc))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "img-3", images[0].Name)
	assert.Equal(t, "img-1", images[2].Name)
}

func TestPatchGuard(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	artifactory := &model.Artifactory{
		AuditStamp:        model.NewAuditStamp("alice", testTime),
		DeactivationStamp: model.DeactivationStamp{IsActive: true},
		ID:                uuid.New(),
		BaseURI:           "https://repo.example.com",
	}
	require.NoError(t, r.Create(ctx, artifactory))

	deactivateQuery := func() repo.Query {
		return *repo.NewQuery().
			Where(repo.NewCompositeKey().Where(repo.IsActiveField, true)).
			Update(repo.DeactivatedUsernameField, repo.DeactivatedUTCField, repo.IsActiveField)
	}

	t.Run("guarded update writes one row", func(t *testing.T) {
		patch := *artifactory
		patch.Deactivate("bob", testTime.Add(time.Hour))

		ok, err := r.Patch(ctx, &patch, deactivateQuery())
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("guard fails once the row is inactive", func(t *testing.T) {
		patch := *artifactory
		patch.Deactivate("carol", testTime.Add(2*time.Hour))

		ok, err := r.Patch(ctx, &patch, deactivateQuery())
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("first stamp is preserved", func(t *testing.T) {
		var found model.Artifactory

		_, err := r.First(ctx, &found, *repo.NewQuery().Where(
			repo.NewCompositeKey().Where(repo.BaseURIField, "https://repo.example.com"),
		))
		require.NoError(t, err)
		assert.False(t, found.IsActive)
		assert.Equal(t, "bob", *found.DeactivatedUsername)
	})

	t.Run("write is limited to the selected columns", func(t *testing.T) {
		other := &model.Artifactory{
			AuditStamp:        model.NewAuditStamp("alice", testTime),
			DeactivationStamp: model.DeactivationStamp{IsActive: true},
			ID:                uuid.New(),
			BaseURI:           "https://other.example.com",
		}
		require.NoError(t, r.Create(ctx, other))

		patch := *other
		patch.BaseURI = "https://rewritten.example.com"
		patch.Deactivate("bob", testTime.Add(time.Hour))

		ok, err := r.Patch(ctx, &patch, deactivateQuery())
		require.NoError(t, err)
		assert.True(t, ok)

		var found model.Artifactory

		_, err = r.First(ctx, &found, *repo.NewQuery().Where(
			repo.NewCompositeKey().Where(repo.IDField, other.ID),
		))
		require.NoError(t, err)
		assert.False(t, found.IsActive)
		require.NotNil(t, found.DeactivatedUsername)
		assert.Equal(t, "bob", *found.DeactivatedUsername)
		require.NotNil(t, found.DeactivatedUTC)
		assert.Equal(t, "https://other.example.com", found.BaseURI)
	})
}

func TestTransactionRollback(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	forced := errors.New("forced")

	err := r.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		if err := tx.Create(ctx, newImage("img-tx")); err != nil {
			return err
		}

		return forced
	})
	assert.ErrorIs(t, err, forced)

	var found model.Image

	_, err = r.First(ctx, &found, *repo.NewQuery().Where(
		repo.NewCompositeKey().Where(repo.NameField, "img-tx"),
	))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestTransactionCommit(t *testing.T) {
	r := sql.NewRepository(testutils.NewTestDB(t))
	ctx := t.Context()

	err := r.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		return tx.Create(ctx, newImage("img-committed"))
	})
	require.NoError(t, err)

	var found model.Image

	ok, err := r.First(ctx, &found, *repo.NewQuery().Where(
		repo.NewCompositeKey().Where(repo.NameField, "img-committed"),
	))
	assert.NoError(t, err)
	assert.True(t, ok)
}
