package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/finder"
	"github.com/playperu/cafefinder/internal/handler/health"
	"github.com/playperu/cafefinder/internal/locate"
	"github.com/playperu/cafefinder/internal/session"
)

type testEnv struct {
	router http.Handler
	svc    *finder.Service
	broker *Broker
}

func setupServer(t *testing.T) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, problems := cafefinder.NewCatalog([]cafefinder.Cafe{
		{ID: "a", Name: "Cafe A", Lat: -12.10, Lng: -77.03, Rating: 4.5},
		{ID: "b", Name: "Cafe B", Lat: -12.047, Lng: -77.043},
	})
	if len(problems) != 0 {
		t.Fatalf("catalog: %v", problems)
	}

	broker := NewBroker()
	bridge := locate.NewBridge(func(id string, req cafefinder.LocateRequest) {
		broker.Publish(id, finder.Event{Type: finder.EventLocate, Locate: &req})
	})
	store := session.NewMemoryStore(time.Hour)

	opts := finder.DefaultOptions()
	opts.Locate.Timeout = 2 * time.Second
	opts.Grace = 0
	svc := finder.New(finder.Deps{
		Catalog: cat,
		Store:   store,
		Locator: bridge,
		Events:  broker,
		Logger:  logger,
		Options: opts,
	})
	t.Cleanup(svc.Close)

	h := NewHandler(logger, Deps{
		Finder: svc,
		Broker: broker,
		Checks: map[string]health.Checker{"sessions": store},
	})
	return testEnv{router: h, svc: svc, broker: broker}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) finder.View {
	t.Helper()
	var v finder.View
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	return v
}

func openSession(t *testing.T, env testEnv) finder.View {
	t.Helper()
	w := do(t, env.router, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeView(t, w)
}

func waitLocate(t *testing.T, ch chan Message) cafefinder.LocateRequest {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-ch:
			if msg.Type != finder.EventLocate {
				continue
			}
			var ev finder.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				t.Fatalf("decoding event: %v", err)
			}
			return *ev.Locate
		case <-timeout:
			t.Fatal("no locate event")
		}
	}
}

func TestSessionFlow(t *testing.T) {
	env := setupServer(t)

	v := openSession(t, env)
	if v.Location.State != cafefinder.LocationPrompting {
		t.Fatalf("expected prompting, got %s", v.Location.State)
	}
	if v.List.Title != "Nearby Cafes (2)" {
		t.Errorf("title = %q", v.List.Title)
	}
	base := "/api/sessions/" + v.SessionID

	ch := env.broker.Subscribe(v.SessionID)
	defer env.broker.Unsubscribe(v.SessionID, ch)

	w := do(t, env.router, http.MethodPost, base+"/location/accept", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("accept: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if got := decodeView(t, w).Location.State; got != cafefinder.LocationAcquiring {
		t.Fatalf("accept: expected acquiring, got %s", got)
	}

	req := waitLocate(t, ch)
	if !req.Options.HighAccuracy {
		t.Errorf("locate options = %+v", req.Options)
	}

	w = do(t, env.router, http.MethodPost, base+"/location/report",
		map[string]any{"token": req.Token, "lat": -12.0464, "lng": -77.0428})
	if w.Code != http.StatusAccepted {
		t.Fatalf("report: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	env.svc.Wait()

	w = do(t, env.router, http.MethodGet, base, nil)
	v = decodeView(t, w)
	if v.Location.State != cafefinder.LocationReady {
		t.Fatalf("expected ready, got %s", v.Location.State)
	}
	if v.List.Entries[0].ID != "b" || !strings.HasSuffix(v.List.Entries[0].Distance, " km away") {
		t.Errorf("first entry = %+v", v.List.Entries[0])
	}
	if v.Map == nil || v.Map.OpenPopup != cafefinder.UserMarkerID {
		t.Fatalf("map = %+v", v.Map)
	}
}

func TestReportDenied(t *testing.T) {
	env := setupServer(t)
	v := openSession(t, env)
	base := "/api/sessions/" + v.SessionID

	ch := env.broker.Subscribe(v.SessionID)
	defer env.broker.Unsubscribe(v.SessionID, ch)

	do(t, env.router, http.MethodPost, base+"/location/accept", nil)
	req := waitLocate(t, ch)

	w := do(t, env.router, http.MethodPost, base+"/location/report",
		ReportRequest{Token: req.Token, Error: "permission_denied"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("report: expected 202, got %d", w.Code)
	}
	env.svc.Wait()

	v = decodeView(t, do(t, env.router, http.MethodGet, base, nil))
	if v.Location.State != cafefinder.LocationFailed || !v.Location.Retryable {
		t.Fatalf("location = %+v", v.Location)
	}
	if v.Map != nil {
		t.Error("expected no map without a position")
	}

	w = do(t, env.router, http.MethodPost, base+"/location/retry", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("retry: expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionErrors(t *testing.T) {
	env := setupServer(t)
	v := openSession(t, env)
	base := "/api/sessions/" + v.SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed id", http.MethodGet, "/api/sessions/not-a-uuid", nil, http.StatusNotFound},
		{"unknown id", http.MethodGet, "/api/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"retry while prompting", http.MethodPost, base + "/location/retry", nil, http.StatusConflict},
		{"stale report", http.MethodPost, base + "/location/report", map[string]any{"token": "old", "lat": 1, "lng": 1}, http.StatusConflict},
		{"report without result", http.MethodPost, base + "/location/report", map[string]any{"token": "t"}, http.StatusBadRequest},
		{"selection bad json", http.MethodPost, base + "/selection", "{", http.StatusBadRequest},
		{"selection without id", http.MethodPost, base + "/selection", map[string]any{}, http.StatusBadRequest},
		{"unknown cafe", http.MethodPost, base + "/selection", SelectRequest{CafeID: "zzz"}, http.StatusNotFound},
		{"blank address", http.MethodPost, base + "/location/address", AddressRequest{Address: "  "}, http.StatusBadRequest},
		{"no geocoder", http.MethodPost, base + "/location/address", AddressRequest{Address: "Miraflores"}, http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, env.router, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestSelectKeepsSelectionOnUnknownCafe(t *testing.T) {
	env := setupServer(t)
	v := openSession(t, env)
	base := "/api/sessions/" + v.SessionID

	w := do(t, env.router, http.MethodPost, base+"/selection", SelectRequest{CafeID: "a"})
	if w.Code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d", w.Code)
	}
	if got := decodeView(t, w).SelectedID; got != "a" {
		t.Fatalf("selected = %q", got)
	}

	w = do(t, env.router, http.MethodPost, base+"/selection", SelectRequest{CafeID: "nope"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown: expected 404, got %d", w.Code)
	}

	v = decodeView(t, do(t, env.router, http.MethodGet, base, nil))
	if v.SelectedID != "a" || !v.List.Entries[0].Selected {
		t.Errorf("selection changed: %+v", v)
	}
}

func TestCafes(t *testing.T) {
	env := setupServer(t)

	w := do(t, env.router, http.MethodGet, "/api/cafes", nil)
	var list CafesResponse
	json.NewDecoder(w.Body).Decode(&list)
	if w.Code != http.StatusOK || list.Count != 2 || list.Cafes[0].ID != "a" {
		t.Fatalf("cafes: %d %+v", w.Code, list)
	}

	tests := []struct {
		query     string
		want      int
		wantFirst string
		wantLen   int
	}{
		{"lat=-12.0464&lng=-77.0428", http.StatusOK, "b", 2},
		{"lat=-12.11&lng=-77.03&limit=1", http.StatusOK, "a", 1},
		{"lat=-12.0464&lng=-77.0428&limit=0", http.StatusOK, "b", 2},
		{"lat=abc&lng=1", http.StatusBadRequest, "", 0},
		{"lat=91&lng=0", http.StatusBadRequest, "", 0},
		{"lng=0", http.StatusBadRequest, "", 0},
		{"lat=0&lng=0&limit=-1", http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, env.router, http.MethodGet, "/api/cafes/nearby?"+tt.query, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			var resp NearbyResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if len(resp.List.Entries) != tt.wantLen || resp.List.Entries[0].ID != tt.wantFirst {
				t.Errorf("entries = %+v", resp.List.Entries)
			}
		})
	}
}

func TestHealthzAndPage(t *testing.T) {
	env := setupServer(t)

	w := do(t, env.router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sessions"`) {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}

	for _, path := range []string{"/", "/some/client/route"} {
		w = do(t, env.router, http.MethodGet, path, nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Cafe Finder") {
			t.Errorf("%s: %d", path, w.Code)
		}
	}

	w = do(t, env.router, http.MethodGet, "/app.js", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Type"), "javascript") {
		t.Errorf("app.js: %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = do(t, env.router, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("/api/nope: %d", w.Code)
	}
}

func TestEventsStream(t *testing.T) {
	env := setupServer(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	v := openSession(t, env)
	base := srv.URL + "/api/sessions/" + v.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": subscribed" {
		t.Fatalf("first line = %q", lines.Text())
	}

	body := strings.NewReader(`{"cafeId":"b"}`)
	sel, err := http.Post(base+"/selection", "application/json", body)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	sel.Body.Close()

	var event, data string
	for lines.Scan() {
		line := lines.Text()
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			event = after
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			data = after
			break
		}
	}
	if event != "selection" || !strings.Contains(data, `"cafeId":"b"`) {
		t.Fatalf("event = %q data = %q", event, data)
	}
}

func TestSocket(t *testing.T) {
	env := setupServer(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	v := openSession(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/sessions/" + v.SessionID + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, SocketCommand{Type: "select", CafeID: "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ev finder.Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != finder.EventSelection || ev.CafeID != "b" {
		t.Fatalf("event = %+v", ev)
	}

	tests := []struct {
		cmd  SocketCommand
		want string
	}{
		{SocketCommand{Type: "select", CafeID: "zzz"}, "cafe not found"},
		{SocketCommand{Type: "retry"}, "location is not in a state that allows this"},
		{SocketCommand{Type: "dance"}, `unknown type "dance"`},
		{SocketCommand{Type: "report", Token: "t"}, "token and either lat/lng or error are required"},
	}
	for _, tt := range tests {
		if err := wsjson.Write(ctx, conn, tt.cmd); err != nil {
			t.Fatalf("write: %v", err)
		}
		var reply SocketError
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		if reply.Type != "error" || !strings.Contains(reply.Error, tt.want) {
			t.Errorf("%s: reply = %+v, want %q", tt.cmd.Type, reply, tt.want)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}
