// Package write serializes API responses.
package write

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/opendeploy/versioning/internal/api"
	"github.com/opendeploy/versioning/internal/log"
	appcontext "github.com/opendeploy/versioning/utils/context"
)

// JSONResponse writes body with the given status. Encoding failures are
// logged; the status line has already gone out by then.
func JSONResponse(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		log.Error(ctx, "Failed to encode response", err)
	}
}

// ErrorResponse writes the error envelope stamped with the request ID.
func ErrorResponse(ctx context.Context, w http.ResponseWriter, errorResponse api.ErrorMessage) {
	requestID, err := appcontext.GetRequestID(ctx)
	if err == nil {
		errorResponse.Error.RequestID = &requestID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorResponse.Error.Status)

	err = json.NewEncoder(w).Encode(&errorResponse)
	if err != nil {
		log.Error(ctx, "Failed to encode error response", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
