package manager

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opendeploy/versioning/internal/errs"
	"github.com/opendeploy/versioning/internal/metrics"
	"github.com/opendeploy/versioning/internal/model"
	"github.com/opendeploy/versioning/internal/repo"
)

// ArtifactManager owns the artifact-level transitions that cascade into the
// deployments referencing the artifact. Re-binding an artifact to another
// artifactory, or retiring it, walks every active referencing deployment and
// supersedes or deactivates it inside the same transaction, so readers never
// observe a deployment pointing at a deactivated artifact row.
type ArtifactManager struct {
	repo       repo.Repo
	references *ReferenceManager
}

func NewArtifactManager(r repo.Repo, references *ReferenceManager) *ArtifactManager {
	return &ArtifactManager{repo: r, references: references}
}

func activeArtifactQuery(group, name string) repo.CompositeKey {
	return repo.NewCompositeKey().
		Where(repo.GroupField, group).
		Where(repo.NameField, name).
		Where(repo.IsActiveField, true)
}

// Get returns the active artifact for (group, name) with its artifactory
// preloaded.
func (m *ArtifactManager) Get(ctx context.Context, group, name string) (*model.Artifact, error) {
	return getActiveArtifact(ctx, m.repo, group, name)
}

func getActiveArtifact(ctx context.Context, r repo.Repo, group, name string) (*model.Artifact, error) {
	artifact := &model.Artifact{}

	_, err := r.First(ctx, artifact, *repo.NewQuery().
		Where(activeArtifactQuery(group, name)).
		Preload(repo.Preload{"Artifactory"}),
	)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArtifactNotFound
		}

		return nil, errs.Wrap(ErrGetArtifactDB, err)
	}

	return artifact, nil
}

// Create registers an artifact bound to the given artifactory base URI,
// returning the existing active row when one is already registered.
func (m *ArtifactManager) Create(
	ctx context.Context,
	group, name, baseURI, actor string,
	ts time.Time,
) (*model.Artifact, error) {
	artifact, err := m.references.GetOrCreateArtifact(ctx, group, name, baseURI, actor, ts)
	if err != nil {
		return nil, err
	}

	return getActiveArtifact(ctx, m.repo, artifact.Group, artifact.Name)
}

// SwitchArtifactory re-binds the active artifact to a different artifactory
// and re-points every active deployment referencing it, all in one
// transaction. The old artifact row and the old deployment rows are
// deactivated; inactive deployments keep their historical binding.
func (m *ArtifactManager) SwitchArtifactory(
	ctx context.Context,
	group, name, baseURI, actor string,
	ts time.Time,
) (*model.Artifact, int, error) {
	// Upserted outside the transaction; see ReferenceManager.
	artifactory, err := m.references.GetOrCreateArtifactory(ctx, baseURI, actor, ts)
	if err != nil {
		return nil, 0, err
	}

	var repointed int

	err = withRaceRetry(func() error {
		return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
			current, err := getActiveArtifact(ctx, tx, group, name)
			if err != nil {
				return err
			}

			if current.ArtifactoryID == artifactory.ID {
				return ErrNoChanges
			}

			// The old row must drop is_active before the successor is
			// inserted; the partial unique index on (group_name, name)
			// admits only one active row at a time.
			err = deactivateArtifact(ctx, tx, current, actor, ts)
			if err != nil {
				return err
			}

			next := current.Rebind(artifactory.ID, actor, ts)

			err = tx.Create(ctx, &next)
			if err != nil {
				return errs.Wrap(ErrCreateArtifactDB, err)
			}

			repointed, err = m.repointDeployments(ctx, tx, current.ID, next.ID, actor, ts)

			return err
		})
	})
	if err != nil {
		return nil, 0, err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionCascadeSwitch).Add(float64(repointed))

	switched, err := m.Get(ctx, group, name)

	return switched, repointed, err
}

// Retire deactivates the active artifact and every active deployment still
// referencing it. The deployments fall first, then the artifact.
func (m *ArtifactManager) Retire(
	ctx context.Context,
	group, name, actor string,
	ts time.Time,
) error {
	var retired int

	err := withRaceRetry(func() error {
		return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
			current, err := getActiveArtifact(ctx, tx, group, name)
			if err != nil {
				return err
			}

			retired, err = m.retireDeployments(ctx, tx, current.ID, actor, ts)
			if err != nil {
				return err
			}

			return deactivateArtifact(ctx, tx, current, actor, ts)
		})
	})
	if err != nil {
		return err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionCascadeRetire).Add(float64(retired))

	return nil
}

// DeactivateArtifactory retires an artifactory endpoint: every active
// artifact bound to it is retired (cascading into its deployments), then the
// artifactory row itself is deactivated.
func (m *ArtifactManager) DeactivateArtifactory(
	ctx context.Context,
	baseURI, actor string,
	ts time.Time,
) error {
	var retired int

	err := withRaceRetry(func() error {
		return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
			artifactory := &model.Artifactory{}

			_, err := tx.First(ctx, artifactory, *repo.NewQuery().
				Where(repo.NewCompositeKey().
					Where(repo.BaseURIField, baseURI).
					Where(repo.IsActiveField, true)),
			)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrArtifactoryNotFound
				}

				return errs.Wrap(ErrGetReferenceDB, err)
			}

			var artifacts []model.Artifact

			_, err = tx.List(ctx, model.Artifact{}, &artifacts, *repo.NewQuery().
				Where(repo.NewCompositeKey().
					Where(repo.ArtifactoryIDField, artifactory.ID).
					Where(repo.IsActiveField, true)),
			)
			if err != nil {
				return errs.Wrap(ErrGetArtifactDB, err)
			}

			for i := range artifacts {
				count, err := m.retireDeployments(ctx, tx, artifacts[i].ID, actor, ts)
				if err != nil {
					return err
				}

				retired += count

				err = deactivateArtifact(ctx, tx, &artifacts[i], actor, ts)
				if err != nil {
					return err
				}
			}

			patch := model.Artifactory{
				ID:                artifactory.ID,
				DeactivationStamp: model.DeactivationStamp{IsActive: true},
			}
			patch.Deactivate(actor, ts)

			wrote, err := tx.Patch(ctx, &patch, *repo.NewQuery().
				Where(repo.NewCompositeKey().Where(repo.IsActiveField, true)).
				Update(repo.DeactivatedUsernameField, repo.DeactivatedUTCField, repo.IsActiveField),
			)
			if err != nil {
				return errs.Wrap(ErrUpdateArtifactDB, err)
			}

			if !wrote {
				return errLostRace
			}

			return nil
		})
	})
	if err != nil {
		return err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionCascadeRetire).Add(float64(retired))

	return nil
}

// repointDeployments supersedes every active deployment referencing oldID
// with a clone bound to newID, returning how many rows were re-pointed.
func (m *ArtifactManager) repointDeployments(
	ctx context.Context,
	tx repo.Repo,
	oldID, newID uuid.UUID,
	actor string,
	ts time.Time,
) (int, error) {
	dependents, err := listActiveDependents(ctx, tx, oldID)
	if err != nil {
		return 0, err
	}

	changes := model.Changes{ArtifactID: &newID}

	for i := range dependents {
		err = deactivateDeployment(ctx, tx, &dependents[i], actor, ts)
		if err != nil {
			return 0, err
		}

		next := model.Supersede(dependents[i], changes, actor, ts)

		err = tx.Create(ctx, &next)
		if err != nil {
			return 0, errs.Wrap(ErrCreateDeploymentDB, err)
		}
	}

	return len(dependents), nil
}

// retireDeployments deactivates every active deployment referencing the
// artifact without inserting successors, returning how many fell.
func (m *ArtifactManager) retireDeployments(
	ctx context.Context,
	tx repo.Repo,
	artifactID uuid.UUID,
	actor string,
	ts time.Time,
) (int, error) {
	dependents, err := listActiveDependents(ctx, tx, artifactID)
	if err != nil {
		return 0, err
	}

	for i := range dependents {
		err = deactivateDeployment(ctx, tx, &dependents[i], actor, ts)
		if err != nil {
			return 0, err
		}
	}

	return len(dependents), nil
}

func listActiveDependents(ctx context.Context, tx repo.Repo, artifactID uuid.UUID) ([]model.Deployment, error) {
	var dependents []model.Deployment

	_, err := tx.List(ctx, model.Deployment{}, &dependents, *repo.NewQuery().
		Where(repo.NewCompositeKey().
			Where(repo.ArtifactIDField, artifactID).
			Where(repo.IsActiveField, true)),
	)
	if err != nil {
		return nil, errs.Wrap(ErrListDeploymentsDB, err)
	}

	return dependents, nil
}

// deactivateArtifact is the artifact-side guarded flip, mirroring
// deactivateDeployment.
func deactivateArtifact(
	ctx context.Context,
	tx repo.Repo,
	current *model.Artifact,
	actor string,
	ts time.Time,
) error {
	patch := model.Artifact{
		ID:                current.ID,
		DeactivationStamp: model.DeactivationStamp{IsActive: true},
	}
	patch.Deactivate(actor, ts)

	wrote, err := tx.Patch(ctx, &patch, *repo.NewQuery().
		Where(repo.NewCompositeKey().Where(repo.IsActiveField, true)).
		Update(repo.DeactivatedUsernameField, repo.DeactivatedUTCField, repo.IsActiveField),
	)
	if err != nil {
		return errs.Wrap(ErrUpdateArtifactDB, err)
	}

	if !wrote {
		return errLostRace
	}

	return nil
}
