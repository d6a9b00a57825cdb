package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opendeploy/versioning/internal/api"
	"github.com/opendeploy/versioning/internal/api/transform"
	"github.com/opendeploy/versioning/internal/api/write"
	"github.com/opendeploy/versioning/internal/apierrors"
	"github.com/opendeploy/versioning/internal/log"
	"github.com/opendeploy/versioning/internal/manager"
	"github.com/opendeploy/versioning/internal/metrics"
	"github.com/opendeploy/versioning/internal/model"
)

const (
	maxEnvironmentLen = 4
	maxDataCenterLen  = 3
	maxApplicationLen = 255
	maxStripeLen      = 25
	maxInstanceLen    = 25
)

var errInvalidKeySegment = errors.New("key segments must be non-empty and within their length limits")

// deploymentKey reads and validates the five key segments of the route.
func deploymentKey(r *http.Request) (model.DeploymentKey, error) {
	key := model.DeploymentKey{
		Environment: chi.URLParam(r, "environment"),
		DataCenter:  chi.URLParam(r, "dataCenter"),
		Application: chi.URLParam(r, "application"),
		Stripe:      chi.URLParam(r, "stripe"),
		Instance:    chi.URLParam(r, "instance"),
	}

	segments := []struct {
		value string
		max   int
	}{
		{key.Environment, maxEnvironmentLen},
		{key.DataCenter, maxDataCenterLen},
		{key.Application, maxApplicationLen},
		{key.Stripe, maxStripeLen},
		{key.Instance, maxInstanceLen},
	}

	for _, s := range segments {
		if s.value == "" || len(s.value) > s.max {
			return model.DeploymentKey{}, errInvalidKeySegment
		}
	}

	return key, nil
}

// GetVersion returns the active version snapshot for the key, with the
// artifact download URI resolved best-effort.
func (c *APIController) GetVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := deploymentKey(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	deployment, err := c.Manager.Deployments.Get(ctx, key)
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	w.Header().Set("Last-Modified", deployment.EffectiveUTC.Format(http.TimeFormat))
	write.JSONResponse(ctx, w, http.StatusOK, c.snapshot(r, *deployment))
}

// snapshot builds the version response, resolving the download URI under its
// own timeout. Resolution failures leave the field absent.
func (c *APIController) snapshot(r *http.Request, deployment model.Deployment) api.Version {
	ctx := r.Context()

	resolveCtx, cancel := context.WithTimeout(ctx, c.resolveTimeout)
	defer cancel()

	var downloadURI *string

	uri, err := c.resolver.ResolveDownloadURI(resolveCtx,
		deployment.Artifact.Artifactory.BaseURI,
		deployment.Artifact.Group,
		deployment.Artifact.Name,
		deployment.ArtifactVersion,
	)
	if err != nil {
		metrics.ResolutionFailuresTotal.Inc()
		log.Warn(ctx, "Failed to resolve artifact download URI", log.ErrorAttr(err))
	} else {
		downloadURI = &uri
	}

	return transform.ToVersion(deployment, downloadURI)
}

// PostVersion activates a version on an empty key.
func (c *APIController) PostVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := deploymentKey(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	var body api.CreateVersionRequest

	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	spec, err := createSpec(body)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	deployment, err := c.Manager.Deployments.Create(ctx, key, spec, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusCreated, c.snapshot(r, *deployment))
}

var errMissingCreateField = errors.New("all assignment fields are required")

func createSpec(body api.CreateVersionRequest) (manager.CreateSpec, error) {
	spec := manager.CreateSpec{
		ImageName:            body.ImageName,
		ImageVersion:         body.ImageVersion,
		ArtifactGroup:        body.ArtifactGroup,
		ArtifactName:         body.ArtifactName,
		ArtifactVersion:      body.ArtifactVersion,
		GitRepository:        body.GitRepository,
		ConfigurationVersion: body.ConfigurationVersion,
	}

	for _, field := range []string{
		spec.ImageName, spec.ImageVersion,
		spec.ArtifactGroup, spec.ArtifactName, spec.ArtifactVersion,
		spec.GitRepository, spec.ConfigurationVersion,
	} {
		if field == "" {
			return manager.CreateSpec{}, errMissingCreateField
		}
	}

	return spec, nil
}

// PatchVersion supersedes the active version with the requested overrides.
func (c *APIController) PatchVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := deploymentKey(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	var body api.UpgradeVersionRequest

	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	deployment, err := c.Manager.Deployments.Upgrade(ctx, key, manager.UpgradeSpec{
		ImageVersion:         body.ImageVersion,
		ArtifactVersion:      body.ArtifactVersion,
		ConfigurationVersion: body.ConfigurationVersion,
	}, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusOK, c.snapshot(r, *deployment))
}

// DeleteVersion retires the active version; the key returns to empty.
func (c *APIController) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := deploymentKey(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	err = c.Manager.Deployments.Retire(ctx, key, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetVersionHistory lists every version ever bound to the key, oldest first.
func (c *APIController) GetVersionHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := deploymentKey(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	history, err := c.Manager.Deployments.GetHistory(ctx, key)
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusOK, transform.ToHistory(history))
}
