package registry_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendeploy/versioning/internal/api"
	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/controllers/registry"
	"github.com/opendeploy/versioning/internal/middleware"
	sqlrepo "github.com/opendeploy/versioning/internal/repo/sql"
	"github.com/opendeploy/versioning/internal/testutils"
)

const (
	testBaseURI = "https://artifactory.example.com"
	versionPath = "/v1/versions/dev/AM1/checkout/HTA1/primary"
)

// stubResolver returns a fixed download URI, or fails when empty.
type stubResolver struct {
	uri string
}

func (s *stubResolver) ResolveDownloadURI(_ context.Context, _, _, _, _ string) (string, error) {
	if s.uri == "" {
		return "", errors.New("resolver unavailable")
	}

	return s.uri, nil
}

func newTestRouter(t *testing.T, resolver registry.URIResolver) chi.Router {
	t.Helper()

	cfg := &config.Config{
		Artifactory: config.Artifactory{
			DefaultBaseURI: testBaseURI,
			RequestTimeout: time.Second,
		},
	}

	r := sqlrepo.NewRepository(testutils.NewTestDB(t))

	return registry.NewAPIController(r, cfg, resolver).Router()
}

func doRequest(t *testing.T, router chi.Router, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

const createBody = `{
	"imageName": "registry/checkout",
	"imageVersion": "1.0.0",
	"artifactGroup": "com.example",
	"artifactName": "checkout-service",
	"artifactVersion": "1.0.0",
	"gitRepository": "git@example.com:conf/checkout.git",
	"configurationVersion": "abc123"
}`

func TestVersionLifecycleRoutes(t *testing.T) {
	router := newTestRouter(t, &stubResolver{uri: "https://repo.example.com/checkout.jar"})

	t.Run("GET on an empty key is 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, versionPath, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("POST activates the key", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, versionPath, "alice", createBody)
		require.Equal(t, http.StatusCreated, rec.Code)

		version := decodeBody[api.Version](t, rec)
		assert.Equal(t, "dev", version.Environment)
		assert.Equal(t, "checkout", version.Application)
		assert.Equal(t, "1.0.0", version.ImageVersion)
		assert.Equal(t, "alice", version.EffectiveUsername)
		require.NotNil(t, version.DownloadURI)
		assert.Equal(t, "https://repo.example.com/checkout.jar", *version.DownloadURI)
	})

	t.Run("GET returns the snapshot with Last-Modified", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, versionPath, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Last-Modified"))

		version := decodeBody[api.Version](t, rec)
		assert.Equal(t, "com.example", version.ArtifactGroup)
		assert.Equal(t, "git@example.com:conf/checkout.git", version.GitRepository)
	})

	t.Run("second POST is 405", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, versionPath, "bob", createBody)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("PATCH supersedes the active version", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, versionPath, "bob", `{"imageVersion":"1.1.0"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		version := decodeBody[api.Version](t, rec)
		assert.Equal(t, "1.1.0", version.ImageVersion)
		assert.Equal(t, "bob", version.EffectiveUsername)
	})

	t.Run("no-op PATCH is 409", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, versionPath, "bob", `{"imageVersion":"1.1.0"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("history lists both rows oldest first", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, versionPath+"/history", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		history := decodeBody[[]api.HistoryEntry](t, rec)
		require.Len(t, history, 2)
		assert.Equal(t, "1.0.0", history[0].ImageVersion)
		assert.False(t, history[0].IsActive)
		assert.Equal(t, "1.1.0", history[1].ImageVersion)
		assert.True(t, history[1].IsActive)
	})

	t.Run("DELETE retires the key", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, versionPath, "bob", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, router, http.MethodDelete, versionPath, "bob", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVersionRouteValidation(t *testing.T) {
	router := newTestRouter(t, &stubResolver{uri: "https://repo.example.com/checkout.jar"})

	t.Run("mutating without actor header is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, versionPath, "", createBody)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[api.ErrorMessage](t, rec)
		assert.Equal(t, "REQUIRED_HEADER_ERROR", body.Error.Code)
		assert.NotNil(t, body.Error.RequestID)
	})

	t.Run("oversized key segment is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/v1/versions/development/AM1/checkout/HTA1/primary", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("incomplete payload is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, versionPath, "alice", `{"imageName":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed JSON is 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, versionPath, "alice", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVersionResolverFailureIsBestEffort(t *testing.T) {
	router := newTestRouter(t, &stubResolver{})

	rec := doRequest(t, router, http.MethodPost, versionPath, "alice", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, versionPath, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	version := decodeBody[api.Version](t, rec)
	assert.Nil(t, version.DownloadURI)
}
