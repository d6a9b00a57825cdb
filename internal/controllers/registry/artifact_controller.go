package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opendeploy/versioning/internal/api"
	"github.com/opendeploy/versioning/internal/api/transform"
	"github.com/opendeploy/versioning/internal/api/write"
	"github.com/opendeploy/versioning/internal/apierrors"
)

var errMissingArtifactCoordinates = errors.New("group and name must be non-empty")

func artifactCoordinates(r *http.Request) (string, string, error) {
	group := chi.URLParam(r, "group")
	name := chi.URLParam(r, "name")

	if group == "" || name == "" {
		return "", "", errMissingArtifactCoordinates
	}

	return group, name, nil
}

// GetArtifact returns the active binding for (group, name).
func (c *APIController) GetArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	group, name, err := artifactCoordinates(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	artifact, err := c.Manager.Artifacts.Get(ctx, group, name)
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusOK, transform.ToArtifact(*artifact))
}

// PostArtifact registers an artifact, binding it to the named artifactory or
// the configured default when the payload leaves it empty.
func (c *APIController) PostArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	group, name, err := artifactCoordinates(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	var body api.BindArtifactRequest

	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	artifact, err := c.Manager.Artifacts.Create(ctx, group, name, body.BaseURI, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusCreated, transform.ToArtifact(*artifact))
}

// PostArtifactArtifactory re-binds the artifact to another artifactory,
// cascading through its active deployments.
func (c *APIController) PostArtifactArtifactory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	group, name, err := artifactCoordinates(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	var body api.BindArtifactRequest

	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.JSONDecodeErrorMessage())
		return
	}

	if body.BaseURI == "" {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage("baseUri is required"))
		return
	}

	artifact, repointed, err := c.Manager.Artifacts.SwitchArtifactory(ctx, group, name, body.BaseURI, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	write.JSONResponse(ctx, w, http.StatusOK, api.SwitchArtifactoryResponse{
		Artifact:             transform.ToArtifact(*artifact),
		RepointedDeployments: repointed,
	})
}

// DeleteArtifact retires the artifact and every active deployment still
// referencing it.
func (c *APIController) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	group, name, err := artifactCoordinates(r)
	if err != nil {
		write.ErrorResponse(ctx, w, apierrors.ValidationErrorMessage(err.Error()))
		return
	}

	username, ok := actor(w, r)
	if !ok {
		return
	}

	err = c.Manager.Artifacts.Retire(ctx, group, name, username, time.Now())
	if err != nil {
		writeMappedError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
