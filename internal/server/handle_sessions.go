package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/cafefinder/internal/finder"
)

func handleCreateSession(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Open(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.Header().Set("Location", "/api/sessions/"+v.SessionID)
		writeJSON(w, http.StatusCreated, v)
	}
}

func handleGetSession(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Render(r.Context(), sessionID(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type SelectRequest struct {
	CafeID string `json:"cafeId" required:"true"`
}

func handleSelect(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CafeID == "" {
			writeError(w, http.StatusBadRequest, "cafeId is required")
			return
		}

		v, err := svc.Select(r.Context(), sessionID(r), req.CafeID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
