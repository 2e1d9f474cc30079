package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/finder"
	"github.com/playperu/cafefinder/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps finder errors to an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, cafefinder.ErrUnknownCafe):
		return http.StatusNotFound, "cafe not found"
	case errors.Is(err, cafefinder.ErrNotRetryable):
		return http.StatusConflict, "location cannot be retried"
	case errors.Is(err, cafefinder.ErrInvalidTransition):
		return http.StatusConflict, "location is not in a state that allows this"
	case errors.Is(err, finder.ErrNoPendingRequest):
		return http.StatusConflict, "no matching location request"
	case errors.Is(err, finder.ErrNoGeocoder):
		return http.StatusNotImplemented, "address lookup is not available"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("handling request", "error", err)
	}
	writeError(w, status, msg)
}
