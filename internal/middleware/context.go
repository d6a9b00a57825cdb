// Package middleware holds the HTTP middlewares of the API server.
package middleware

import (
	"net/http"

	appcontext "github.com/opendeploy/versioning/utils/context"
)

// InjectRequestID injects a RequestID into the context to be used by other
// middlewares and handlers.
func InjectRequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(appcontext.InjectRequestID(r.Context())))
		})
	}
}

// ActorHeader names the identity header the fronting proxy sets.
const ActorHeader = "X-Remote-User"

// InjectActor stores the caller identity from the proxy header. Handlers for
// mutating routes reject requests without it.
func InjectActor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := r.Header.Get(ActorHeader)
			if actor != "" {
				r = r.WithContext(appcontext.InjectActor(r.Context(), actor))
			}

			next.ServeHTTP(w, r)
		})
	}
}
