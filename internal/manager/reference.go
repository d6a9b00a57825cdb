package manager

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opendeploy/versioning/internal/errs"
	"github.com/opendeploy/versioning/internal/model"
	"github.com/opendeploy/versioning/internal/repo"
)

// ReferenceManager owns the deduplicated catalogs (images, artifactories,
// artifacts, configurations). Rows are appended through getOrCreate and
// never edited; the natural-key unique indexes arbitrate concurrent
// creates, with the loser re-fetching the winner's row.
//
// Upserts run outside the transition transaction on purpose: catalog rows
// are independent of any single slot, and re-fetching after a lost race is
// not possible inside an aborted transaction.
type ReferenceManager struct {
	repo repo.Repo

	// defaultBaseURI binds artifacts that are first seen through a
	// deployment create, where the payload carries no artifactory.
	defaultBaseURI string
}

func NewReferenceManager(r repo.Repo, defaultBaseURI string) *ReferenceManager {
	return &ReferenceManager{repo: r, defaultBaseURI: defaultBaseURI}
}

// getOrCreate looks up one row by natural key and inserts the stamped
// candidate when absent. A unique-constraint failure means a concurrent
// caller won the insert race; the winner's row is authoritative and is
// re-fetched instead of surfacing the violation.
func getOrCreate[T repo.Resource](
	ctx context.Context,
	r repo.Repo,
	key repo.CompositeKey,
	receiver func() T,
	candidate T,
) (T, error) {
	var zero T

	lookup := func() (T, bool, error) {
		found := receiver()

		_, err := r.First(ctx, found, *repo.NewQuery().Where(key))
		if err == nil {
			return found, true, nil
		}

		if errors.Is(err, repo.ErrNotFound) {
			return zero, false, nil
		}

		return zero, false, errs.Wrap(ErrGetReferenceDB, err)
	}

	found, ok, err := lookup()
	if err != nil || ok {
		return found, err
	}

	err = r.Create(ctx, candidate)
	if err == nil {
		return candidate, nil
	}

	if !errors.Is(err, repo.ErrUniqueConstraint) {
		return zero, errs.Wrap(ErrCreateReferenceDB, err)
	}

	found, ok, err = lookup()
	if err != nil {
		return zero, err
	}

	if !ok {
		return zero, ErrCreateReferenceDB
	}

	return found, nil
}

func (m *ReferenceManager) GetOrCreateImage(
	ctx context.Context,
	name, actor string,
	ts time.Time,
) (*model.Image, error) {
	return getOrCreate(ctx, m.repo,
		repo.NewCompositeKey().Where(repo.NameField, name),
		func() *model.Image { return &model.Image{} },
		&model.Image{
			AuditStamp: model.NewAuditStamp(actor, ts),
			ID:         uuid.New(),
			Name:       name,
		},
	)
}

func (m *ReferenceManager) GetOrCreateConfiguration(
	ctx context.Context,
	gitRepository, actor string,
	ts time.Time,
) (*model.Configuration, error) {
	return getOrCreate(ctx, m.repo,
		repo.NewCompositeKey().Where(repo.GitRepositoryField, gitRepository),
		func() *model.Configuration { return &model.Configuration{} },
		&model.Configuration{
			AuditStamp:    model.NewAuditStamp(actor, ts),
			ID:            uuid.New(),
			GitRepository: gitRepository,
		},
	)
}

func (m *ReferenceManager) GetOrCreateArtifactory(
	ctx context.Context,
	baseURI, actor string,
	ts time.Time,
) (*model.Artifactory, error) {
	return getOrCreate(ctx, m.repo,
		repo.NewCompositeKey().Where(repo.BaseURIField, baseURI),
		func() *model.Artifactory { return &model.Artifactory{} },
		&model.Artifactory{
			AuditStamp:        model.NewAuditStamp(actor, ts),
			DeactivationStamp: model.DeactivationStamp{IsActive: true},
			ID:                uuid.New(),
			BaseURI:           baseURI,
		},
	)
}

// GetOrCreateArtifact resolves the active artifact for (group, name). When
// none exists a fresh row is bound to the given artifactory base URI, or to
// the configured default when the caller has none (a deployment create
// payload names only group and name).
func (m *ReferenceManager) GetOrCreateArtifact(
	ctx context.Context,
	group, name, baseURI, actor string,
	ts time.Time,
) (*model.Artifact, error) {
	if baseURI == "" {
		baseURI = m.defaultBaseURI
	}

	artifactory, err := m.GetOrCreateArtifactory(ctx, baseURI, actor, ts)
	if err != nil {
		return nil, err
	}

	return getOrCreate(ctx, m.repo,
		repo.NewCompositeKey().
			Where(repo.GroupField, group).
			Where(repo.NameField, name).
			Where(repo.IsActiveField, true),
		func() *model.Artifact { return &model.Artifact{} },
		&model.Artifact{
			AuditStamp:        model.NewAuditStamp(actor, ts),
			DeactivationStamp: model.DeactivationStamp{IsActive: true},
			ID:                uuid.New(),
			ArtifactoryID:     artifactory.ID,
			Group:             group,
			Name:              name,
		},
	)
}
