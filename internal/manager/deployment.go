package manager

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/google/uuid"

	"github.com/opendeploy/versioning/internal/errs"
	"github.com/opendeploy/versioning/internal/metrics"
	"github.com/opendeploy/versioning/internal/model"
	"github.com/opendeploy/versioning/internal/repo"
)

// supersedeAttempts bounds the re-read after a lost guarded-deactivate
// race: one retry, then the failure surfaces.
const supersedeAttempts = 2

// CreateSpec is the full assignment a create transition binds to a slot.
type CreateSpec struct {
	ImageName            string
	ImageVersion         string
	ArtifactGroup        string
	ArtifactName         string
	ArtifactVersion      string
	GitRepository        string
	ConfigurationVersion string
}

// UpgradeSpec carries the optional per-facet version overrides of an
// upgrade transition. Nil fields keep the current value.
type UpgradeSpec struct {
	ImageVersion         *string
	ArtifactVersion      *string
	ConfigurationVersion *string
}

// DeploymentManager is the supersession engine for deployment slots. It is
// the only component that flips is_active: every transition deactivates the
// current row and, unless it is a retirement, inserts a successor inside
// the same transaction.
type DeploymentManager struct {
	repo       repo.Repo
	references *ReferenceManager
}

func NewDeploymentManager(r repo.Repo, references *ReferenceManager) *DeploymentManager {
	return &DeploymentManager{repo: r, references: references}
}

func slotQuery(key model.DeploymentKey) repo.CompositeKey {
	return repo.NewCompositeKey().
		Where(repo.EnvironmentField, key.Environment).
		Where(repo.DataCenterField, key.DataCenter).
		Where(repo.ApplicationField, key.Application).
		Where(repo.StripeField, key.Stripe).
		Where(repo.InstanceField, key.Instance)
}

func activeSlotQuery(key model.DeploymentKey) repo.CompositeKey {
	return slotQuery(key).Where(repo.IsActiveField, true)
}

// Get returns the single active deployment for the slot with its reference
// entities preloaded.
func (m *DeploymentManager) Get(ctx context.Context, key model.DeploymentKey) (*model.Deployment, error) {
	return getActive(ctx, m.repo, key)
}

func getActive(ctx context.Context, r repo.Repo, key model.DeploymentKey) (*model.Deployment, error) {
	deployment := &model.Deployment{}

	_, err := r.First(ctx, deployment, *repo.NewQuery().
		Where(activeSlotQuery(key)).
		Preload(repo.Preload{"Image", "Artifact", "Artifact.Artifactory", "Configuration"}),
	)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDeploymentNotFound
		}

		return nil, errs.Wrap(ErrGetDeploymentDB, err)
	}

	return deployment, nil
}

// GetHistory returns every row ever written for the slot, oldest first.
func (m *DeploymentManager) GetHistory(ctx context.Context, key model.DeploymentKey) ([]model.Deployment, error) {
	var history []model.Deployment

	count, err := m.repo.List(ctx, model.Deployment{}, &history, *repo.NewQuery().
		Where(slotQuery(key)).
		OrderBy(repo.EffectiveUTCField, repo.Asc).
		SetLimit(repo.DefaultLimit),
	)
	if err != nil {
		return nil, errs.Wrap(ErrListDeploymentsDB, err)
	}

	if count == 0 {
		return nil, ErrDeploymentNotFound
	}

	return history, nil
}

// Create activates a deployment on an empty slot. A concurrent or existing
// active row surfaces as ErrDeploymentAlreadyActive; the partial unique
// index on the slot columns backs the check against racing writers.
func (m *DeploymentManager) Create(
	ctx context.Context,
	key model.DeploymentKey,
	spec CreateSpec,
	actor string,
	ts time.Time,
) (*model.Deployment, error) {
	image, err := m.references.GetOrCreateImage(ctx, spec.ImageName, actor, ts)
	if err != nil {
		return nil, err
	}

	artifact, err := m.references.GetOrCreateArtifact(ctx, spec.ArtifactGroup, spec.ArtifactName, "", actor, ts)
	if err != nil {
		return nil, err
	}

	configuration, err := m.references.GetOrCreateConfiguration(ctx, spec.GitRepository, actor, ts)
	if err != nil {
		return nil, err
	}

	deployment := &model.Deployment{
		AuditStamp:        model.NewAuditStamp(actor, ts),
		DeactivationStamp: model.DeactivationStamp{IsActive: true},

		ID: uuid.New(),

		DeploymentKey: key,

		ImageID:      image.ID,
		ImageVersion: spec.ImageVersion,

		ArtifactID:      artifact.ID,
		ArtifactVersion: spec.ArtifactVersion,

		ConfigurationID:      configuration.ID,
		ConfigurationVersion: spec.ConfigurationVersion,
	}

	err = m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
		state, _, err := slotState(ctx, tx, key)
		if err != nil {
			return err
		}

		err = checkTransition(state, TransitionCreate)
		if err != nil {
			return err
		}

		err = tx.Create(ctx, deployment)
		if errors.Is(err, repo.ErrUniqueConstraint) {
			// A concurrent create won the slot between the read and the
			// insert; same outcome as an occupied slot.
			return ErrDeploymentAlreadyActive
		} else if err != nil {
			return errs.Wrap(ErrCreateDeploymentDB, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionCreate).Inc()

	return m.Get(ctx, key)
}

// Upgrade supersedes the active row with a clone carrying the requested
// version overrides. Requesting only values equal to the current ones is
// rejected as a no-op without writing anything.
func (m *DeploymentManager) Upgrade(
	ctx context.Context,
	key model.DeploymentKey,
	spec UpgradeSpec,
	actor string,
	ts time.Time,
) (*model.Deployment, error) {
	changes := model.Changes{
		ImageVersion:         spec.ImageVersion,
		ArtifactVersion:      spec.ArtifactVersion,
		ConfigurationVersion: spec.ConfigurationVersion,
	}

	err := m.supersedeSlot(ctx, key, changes, TransitionUpgrade, actor, ts)
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionUpgrade).Inc()

	return m.Get(ctx, key)
}

// SwitchImage re-points the active row at a different image row, keeping
// the deployed version string.
func (m *DeploymentManager) SwitchImage(
	ctx context.Context,
	key model.DeploymentKey,
	imageName, actor string,
	ts time.Time,
) (*model.Deployment, error) {
	image, err := m.references.GetOrCreateImage(ctx, imageName, actor, ts)
	if err != nil {
		return nil, err
	}

	err = m.supersedeSlot(ctx, key, model.Changes{ImageID: &image.ID}, TransitionSwitch, actor, ts)
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionSwitch).Inc()

	return m.Get(ctx, key)
}

// SwitchConfiguration re-points the active row at a different configuration
// source, keeping the deployed version string.
func (m *DeploymentManager) SwitchConfiguration(
	ctx context.Context,
	key model.DeploymentKey,
	gitRepository, actor string,
	ts time.Time,
) (*model.Deployment, error) {
	configuration, err := m.references.GetOrCreateConfiguration(ctx, gitRepository, actor, ts)
	if err != nil {
		return nil, err
	}

	err = m.supersedeSlot(ctx, key, model.Changes{ConfigurationID: &configuration.ID}, TransitionSwitch, actor, ts)
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionSwitch).Inc()

	return m.Get(ctx, key)
}

// Retire deactivates the active row without a successor; the slot returns
// to NONE. A second retire finds no active row and reports NotFound,
// leaving the first deactivation stamp untouched.
func (m *DeploymentManager) Retire(
	ctx context.Context,
	key model.DeploymentKey,
	actor string,
	ts time.Time,
) error {
	err := withRaceRetry(func() error {
		return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
			state, current, err := slotState(ctx, tx, key)
			if err != nil {
				return err
			}

			err = checkTransition(state, TransitionRetire)
			if err != nil {
				return err
			}

			return deactivateDeployment(ctx, tx, current, actor, ts)
		})
	})
	if err != nil {
		return err
	}

	metrics.TransitionsTotal.WithLabelValues(TransitionRetire).Inc()

	return nil
}

// supersedeSlot executes the atomic deactivate-old/insert-new pair for one
// slot, checking the transition against the slot lifecycle before anything
// is written. A guarded deactivate writing zero rows means a concurrent
// writer superseded the row first; the transition re-reads and retries once.
func (m *DeploymentManager) supersedeSlot(
	ctx context.Context,
	key model.DeploymentKey,
	changes model.Changes,
	transition, actor string,
	ts time.Time,
) error {
	return withRaceRetry(func() error {
		return m.repo.Transaction(ctx, func(ctx context.Context, tx repo.Repo) error {
			state, current, err := slotState(ctx, tx, key)
			if err != nil {
				return err
			}

			err = checkTransition(state, transition)
			if err != nil {
				return err
			}

			if changes.IsNoop(*current) {
				return ErrNoChanges
			}

			err = deactivateDeployment(ctx, tx, current, actor, ts)
			if err != nil {
				return err
			}

			next := model.Supersede(*current, changes, actor, ts)

			err = tx.Create(ctx, &next)
			if err != nil {
				return errs.Wrap(ErrCreateDeploymentDB, err)
			}

			return nil
		})
	})
}

// deactivateDeployment is the guarded single-shot flip: the update only
// matches while the row is still active, so losing writers observe zero
// rows affected instead of overwriting the winner's stamp.
func deactivateDeployment(
	ctx context.Context,
	tx repo.Repo,
	current *model.Deployment,
	actor string,
	ts time.Time,
) error {
	// The stamp helper only fires on an active row; the patch carrier must
	// start active or the deactivation fields stay empty.
	patch := model.Deployment{
		ID:                current.ID,
		DeactivationStamp: model.DeactivationStamp{IsActive: true},
	}
	patch.Deactivate(actor, ts)

	wrote, err := tx.Patch(ctx, &patch, *repo.NewQuery().
		Where(repo.NewCompositeKey().Where(repo.IsActiveField, true)).
		Update(repo.DeactivatedUsernameField, repo.DeactivatedUTCField, repo.IsActiveField),
	)
	if err != nil {
		return errs.Wrap(ErrUpdateDeploymentDB, err)
	}

	if !wrote {
		return errLostRace
	}

	return nil
}

// withRaceRetry runs a transition and retries it once when it lost the
// guarded-deactivate race, re-reading state on the second attempt.
func withRaceRetry(transition func() error) error {
	retrier := retry.New(
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, errLostRace) {
				metrics.SupersessionRetries.Inc()
				return true
			}

			return false
		}),
		retry.Attempts(supersedeAttempts),
		retry.LastErrorOnly(true),
	)

	return retrier.Do(transition)
}

// slotState reads the slot's lifecycle state inside the transaction,
// returning the active row when there is one.
func slotState(ctx context.Context, tx repo.Repo, key model.DeploymentKey) (string, *model.Deployment, error) {
	current, err := getActive(ctx, tx, key)
	if err == nil {
		return StateActive, current, nil
	}

	if errors.Is(err, ErrDeploymentNotFound) {
		return StateNone, nil, nil
	}

	return "", nil, err
}
