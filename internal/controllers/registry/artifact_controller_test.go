package registry_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendeploy/versioning/internal/api"
)

const artifactPath = "/v1/artifacts/com.example/checkout-service"

func TestArtifactRoutes(t *testing.T) {
	router := newTestRouter(t, &stubResolver{uri: "https://repo.example.com/checkout.jar"})

	t.Run("GET on an unknown artifact is 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, artifactPath, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("POST registers the artifact with the default artifactory", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, artifactPath, "alice", `{}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		artifact := decodeBody[api.Artifact](t, rec)
		assert.Equal(t, "com.example", artifact.Group)
		assert.Equal(t, "checkout-service", artifact.Name)
		assert.Equal(t, testBaseURI, artifact.BaseURI)
	})

	t.Run("GET returns the binding", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, artifactPath, "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		artifact := decodeBody[api.Artifact](t, rec)
		assert.Equal(t, testBaseURI, artifact.BaseURI)
	})

	t.Run("artifactory switch re-binds and reports the cascade size", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, versionPath, "alice", createBody)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doRequest(t, router, http.MethodPost, artifactPath+"/artifactory", "bob",
			`{"baseUri":"https://mirror.example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		switched := decodeBody[api.SwitchArtifactoryResponse](t, rec)
		assert.Equal(t, "https://mirror.example.com", switched.Artifact.BaseURI)
		assert.Equal(t, 1, switched.RepointedDeployments)
	})

	t.Run("switch without base URI is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, artifactPath+"/artifactory", "bob", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DELETE retires artifact and dependents", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, artifactPath, "bob", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, router, http.MethodGet, artifactPath, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, router, http.MethodGet, versionPath, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
