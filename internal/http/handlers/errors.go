package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hongminglow/storefront-be/internal/auth"
	"github.com/hongminglow/storefront-be/internal/http/respond"
	"github.com/hongminglow/storefront-be/internal/storage"
)

// writeError maps domain errors to status codes. Unknown errors are logged and hidden behind a 500.
func writeError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrDuplicateAccount):
		respond.Error(w, http.StatusBadRequest, auth.ErrDuplicateAccount.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		respond.Error(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(w, http.StatusForbidden, auth.ErrForbidden.Error())
	case errors.Is(err, auth.ErrRateLimited):
		respond.Error(w, http.StatusTooManyRequests, auth.ErrRateLimited.Error())
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "email already in use")
	default:
		log.Error().Err(err).Msg("request failed")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
