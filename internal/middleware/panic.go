package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/opendeploy/versioning/internal/api/write"
	"github.com/opendeploy/versioning/internal/apierrors"
	"github.com/opendeploy/versioning/internal/log"
)

// PanicRecoveryMiddleware recovers from handler panics, logs them and turns
// them into a 500 response.
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func(ctx context.Context) {
				err := recover()
				if err != nil {
					//nolint:err113
					log.Error(ctx, "Panic Occurred", fmt.Errorf("%v", err),
						slog.String("stackTrace", string(debug.Stack())),
					)

					write.ErrorResponse(ctx, w, apierrors.APIError{}.DefaultError().ToMessage())
				}
			}(r.Context())

			next.ServeHTTP(w, r)
		})
	}
}
