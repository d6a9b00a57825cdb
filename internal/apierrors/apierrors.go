// Package apierrors maps internal error chains onto the HTTP error surface.
package apierrors

import (
	"net/http"

	"github.com/opendeploy/versioning/internal/api"
)

const (
	InternalServerErr = "INTERNAL_SERVER_ERROR"
	JSONDecodeErr     = "JSON_DECODE_ERROR"
	ValidationErr     = "VALIDATION_ERROR"
	RequiredHeaderErr = "REQUIRED_HEADER_ERROR"

	VersionNotFoundErr      = "VERSION_NOT_FOUND"
	VersionAlreadyActiveErr = "VERSION_ALREADY_ACTIVE"
	NoChangesErr            = "NO_CHANGES"
	ArtifactNotFoundErr     = "ARTIFACT_NOT_FOUND"
	ArtifactoryNotFoundErr  = "ARTIFACTORY_NOT_FOUND"
)

// APIError is the exposed form of an internal failure.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (APIError) DefaultError() APIError {
	return APIError{
		Code:    InternalServerErr,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}
}

func (e APIError) ToMessage() api.ErrorMessage {
	return api.ErrorMessage{Error: api.DetailedError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
	}}
}

func JSONDecodeErrorMessage() api.ErrorMessage {
	return api.ErrorMessage{Error: api.DetailedError{
		Code:    JSONDecodeErr,
		Message: "Can't decode JSON body",
		Status:  http.StatusBadRequest,
	}}
}

func ValidationErrorMessage(message string) api.ErrorMessage {
	return api.ErrorMessage{Error: api.DetailedError{
		Code:    ValidationErr,
		Message: message,
		Status:  http.StatusBadRequest,
	}}
}

func RequiredHeaderErrorMessage(header string) api.ErrorMessage {
	return api.ErrorMessage{Error: api.DetailedError{
		Code:    RequiredHeaderErr,
		Message: "Missing required header " + header,
		Status:  http.StatusBadRequest,
	}}
}
