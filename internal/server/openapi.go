package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/cafefinder/internal/finder"
	"github.com/playperu/cafefinder/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type SessionPath struct {
	SessionID string `path:"sessionID" format:"uuid"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Cafe Finder API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Ranks nearby cafes and keeps a session's list and map in sync.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the status of the session store and the cafe catalog.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/cafes
	listCafes, _ := r.NewOperationContext(http.MethodGet, "/api/cafes")
	listCafes.SetSummary("List cafes")
	listCafes.SetDescription("Returns the loaded cafe catalog in load order.")
	listCafes.AddRespStructure(CafesResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCafes)

	// GET /api/cafes/nearby
	nearby, _ := r.NewOperationContext(http.MethodGet, "/api/cafes/nearby")
	nearby.SetSummary("Rank cafes")
	nearby.SetDescription("Ranks the catalog by distance from lat/lng, nearest first. No session involved.")
	nearby.AddReqStructure(NearbyRequest{})
	nearby.AddRespStructure(NearbyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	nearby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(nearby)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Open session")
	createSession.SetDescription("Starts a session. Its location flow begins by prompting for permission.")
	createSession.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}")
	getSession.SetSummary("Render session")
	getSession.SetDescription("Returns the location prompt or error, the cafe list and the map view.")
	getSession.AddReqStructure(SessionPath{})
	getSession.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/sessions/{sessionID}/location/accept
	accept, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/location/accept")
	accept.SetSummary("Accept location prompt")
	accept.SetDescription("Starts acquiring the device location. Only valid while prompting.")
	accept.AddReqStructure(SessionPath{})
	accept.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	accept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	accept.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(accept)

	// POST /api/sessions/{sessionID}/location/retry
	retry, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/location/retry")
	retry.SetSummary("Retry location")
	retry.SetDescription("Restarts acquisition after a retryable failure.")
	retry.AddReqStructure(SessionPath{})
	retry.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	retry.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	retry.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(retry)

	// POST /api/sessions/{sessionID}/location/report
	report, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/location/report")
	report.SetSummary("Report geolocation result")
	report.SetDescription("Answers the outstanding locate event with a position or a browser error code.")
	report.AddReqStructure(SessionPath{})
	report.AddReqStructure(ReportRequest{})
	report.AddRespStructure(ReportResponse{}, openapi.WithHTTPStatus(http.StatusAccepted))
	report.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	report.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	report.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(report)

	// POST /api/sessions/{sessionID}/location/address
	address, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/location/address")
	address.SetSummary("Locate by address")
	address.SetDescription("Uses a geocoded address as the reference position instead of the device.")
	address.AddReqStructure(SessionPath{})
	address.AddReqStructure(AddressRequest{})
	address.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	address.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	address.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	address.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotImplemented))
	_ = r.AddOperation(address)

	// POST /api/sessions/{sessionID}/selection
	selection, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/selection")
	selection.SetSummary("Select cafe")
	selection.SetDescription("Sets the cafe highlighted in the list and focused on the map.")
	selection.AddReqStructure(SessionPath{})
	selection.AddReqStructure(SelectRequest{})
	selection.AddRespStructure(finder.View{}, openapi.WithHTTPStatus(http.StatusOK))
	selection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	selection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(selection)

	// GET /api/sessions/{sessionID}/events
	events, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	events.SetSummary("SSE event stream")
	events.SetDescription("Server-Sent Events for location, selection and locate changes of the session.")
	events.AddReqStructure(SessionPath{})
	events.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(events)

	// GET /api/sessions/{sessionID}/ws
	socket, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/ws")
	socket.SetSummary("Session WebSocket")
	socket.SetDescription("Upgrades to a WebSocket carrying session commands in and session events out.")
	socket.AddReqStructure(SessionPath{})
	socket.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(socket)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.HandlerFunc {
	return v5emb.New("Cafe Finder API", "/openapi.json", "/docs").ServeHTTP
}
