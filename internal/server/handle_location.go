package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/finder"
	"github.com/playperu/cafefinder/internal/locate"
)

type transitionFunc func(ctx context.Context, id string) (finder.View, error)

func handleTransition(logger *slog.Logger, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r.Context(), sessionID(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, v)
	}
}

// handleAccept starts acquisition after the user agreed to share location.
func handleAccept(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return handleTransition(logger, svc.Accept)
}

// handleRetry restarts acquisition after a retryable failure.
func handleRetry(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return handleTransition(logger, svc.Retry)
}

// ReportRequest answers a locate event: either a position or a browser
// error code.
type ReportRequest struct {
	Token string   `json:"token" required:"true"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
	Error string   `json:"error,omitempty" enum:"unsupported,permission_denied,position_unavailable,timeout"`
}

type ReportResponse struct {
	Status string `json:"status"`
}

func (req ReportRequest) valid() bool {
	return req.Token != "" && (req.Error != "" || (req.Lat != nil && req.Lng != nil))
}

// result returns the reported position, or the error the browser gave.
func (req ReportRequest) result() (cafefinder.Position, error) {
	if req.Error != "" {
		return cafefinder.Position{}, locate.ErrorFromCode(req.Error)
	}
	return cafefinder.Position{Lat: *req.Lat, Lng: *req.Lng}, nil
}

func handleReport(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReportRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.valid() {
			writeError(w, http.StatusBadRequest, "token and either lat/lng or error are required")
			return
		}
		pos, locErr := req.result()

		if err := svc.Report(r.Context(), sessionID(r), req.Token, pos, locErr); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, ReportResponse{Status: "accepted"})
	}
}

type AddressRequest struct {
	Address string `json:"address" required:"true"`
}

func handleLocateAddress(logger *slog.Logger, svc *finder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddressRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		address := strings.TrimSpace(req.Address)
		if address == "" {
			writeError(w, http.StatusBadRequest, "address is required")
			return
		}

		v, err := svc.LocateAddress(r.Context(), sessionID(r), address)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, v)
	}
}
