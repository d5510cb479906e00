package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/tinyshop/storefront/internal/errors"
)

// HandleError renders err as a JSON error envelope. Storefront domain errors
// (rate limit, upstream failure, cart validation) get their own codes.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, withPath(apperrors.NewNotFoundError("The requested resource was not found"), r))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, withPath(apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"), r))
}

func withPath(env *errors.ErrorEnvelope, r *http.Request) *errors.ErrorEnvelope {
	if updated, err := env.WithContext(map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	}); err == nil {
		return updated
	}
	return env
}
