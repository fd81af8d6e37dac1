package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"opsdesk/internal/domain"
	"opsdesk/internal/httputil"
)

// writeError maps domain errors to HTTP responses. Typed errors carry their
// own status; wrapped sentinels fall back to errors.Is matching.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStaleWrite):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("unexpected error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
