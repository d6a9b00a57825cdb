package apierrors

import (
	"context"
	"net/http"

	"github.com/opendeploy/versioning/internal/errs"
	"github.com/opendeploy/versioning/internal/manager"
)

var deployments = []errs.Mapping[APIError]{
	{
		Chain: []error{manager.ErrDeploymentNotFound},
		Exposed: APIError{
			Code:    VersionNotFoundErr,
			Message: "No active version for this key",
			Status:  http.StatusNotFound,
		},
	},
	{
		Chain: []error{manager.ErrDeploymentAlreadyActive},
		Exposed: APIError{
			Code:    VersionAlreadyActiveErr,
			Message: "Key already has an active version",
			Status:  http.StatusMethodNotAllowed,
		},
	},
	{
		Chain: []error{manager.ErrNoChanges},
		Exposed: APIError{
			Code:    NoChangesErr,
			Message: "Requested change matches the active version",
			Status:  http.StatusConflict,
		},
	},
}

var artifacts = []errs.Mapping[APIError]{
	{
		Chain: []error{manager.ErrArtifactNotFound},
		Exposed: APIError{
			Code:    ArtifactNotFoundErr,
			Message: "No active artifact for this group and name",
			Status:  http.StatusNotFound,
		},
	},
	{
		Chain: []error{manager.ErrArtifactoryNotFound},
		Exposed: APIError{
			Code:    ArtifactoryNotFoundErr,
			Message: "Artifactory not found",
			Status:  http.StatusNotFound,
		},
	},
}

var apiErrorMapper = errs.NewMapper(append(deployments, artifacts...), nil)

// Transform maps an internal error chain to its API representation,
// defaulting to an internal server error.
func Transform(_ context.Context, err error) APIError {
	return apiErrorMapper.Transform(err)
}
