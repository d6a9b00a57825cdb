// Package registry exposes the versioning HTTP API.
package registry

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opendeploy/versioning/internal/api/write"
	"github.com/opendeploy/versioning/internal/apierrors"
	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/manager"
	"github.com/opendeploy/versioning/internal/middleware"
	"github.com/opendeploy/versioning/internal/repo"
	appcontext "github.com/opendeploy/versioning/utils/context"
)

// URIResolver resolves artifact download URIs. Resolution is best effort;
// the snapshot handlers swallow its failures.
type URIResolver interface {
	ResolveDownloadURI(ctx context.Context, baseURI, group, name, version string) (string, error)
}

// APIController handles the versioning API requests.
type APIController struct {
	Manager *manager.Manager

	resolver       URIResolver
	resolveTimeout time.Duration
}

func NewAPIController(r repo.Repo, cfg *config.Config, resolver URIResolver) *APIController {
	return &APIController{
		Manager:        manager.New(r, cfg),
		resolver:       resolver,
		resolveTimeout: cfg.Artifactory.RequestTimeout,
	}
}

// Router builds the chi router with the full route tree and middlewares.
func (c *APIController) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.InjectRequestID())
	r.Use(middleware.InjectActor())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PanicRecoveryMiddleware())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/versions/{environment}/{dataCenter}/{application}/{stripe}/{instance}", func(r chi.Router) {
			r.Get("/", c.GetVersion)
			r.Post("/", c.PostVersion)
			r.Patch("/", c.PatchVersion)
			r.Delete("/", c.DeleteVersion)
			r.Get("/history", c.GetVersionHistory)
		})

		r.Route("/artifacts/{group}/{name}", func(r chi.Router) {
			r.Get("/", c.GetArtifact)
			r.Post("/", c.PostArtifact)
			r.Delete("/", c.DeleteArtifact)
			r.Post("/artifactory", c.PostArtifactArtifactory)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// actor resolves the caller identity injected by the middleware, writing the
// missing-header error itself when absent.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, err := appcontext.GetActor(r.Context())
	if err != nil {
		write.ErrorResponse(r.Context(), w, apierrors.RequiredHeaderErrorMessage(middleware.ActorHeader))
		return "", false
	}

	return username, true
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, err error) {
	write.ErrorResponse(ctx, w, apierrors.Transform(ctx, err).ToMessage())
}
