package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/cafefinder/internal/finder"
)

// SocketCommand is an inbound websocket message. Fields besides Type are
// read according to Type.
type SocketCommand struct {
	Type    string   `json:"type" enum:"select,accept,retry,report,address"`
	CafeID  string   `json:"cafeId,omitempty"`
	Token   string   `json:"token,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Error   string   `json:"error,omitempty"`
	Address string   `json:"address,omitempty"`
}

// SocketError is sent back when a command is rejected.
type SocketError struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}

var errBadCommand = errors.New("bad command")

// handleSocket is the bidirectional session channel: inbound commands run
// the same operations as the REST endpoints, outbound messages are the
// session's events.
func handleSocket(logger *slog.Logger, svc *finder.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if _, err := svc.Render(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					if err := conn.Write(ctx, websocket.MessageText, msg.Data); err != nil {
						logger.Debug("websocket write failed", "session_id", id, "error", err)
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "session_id", id, "error", err)
				return
			}

			var cmd SocketCommand
			if err = json.Unmarshal(data, &cmd); err != nil {
				err = fmt.Errorf("%w: %v", errBadCommand, err)
			} else {
				err = runCommand(ctx, svc, id, cmd)
			}
			if err == nil {
				continue
			}

			reply := SocketError{Type: "error", Command: cmd.Type, Error: err.Error()}
			if !errors.Is(err, errBadCommand) {
				var status int
				status, reply.Error = errorStatus(err)
				if status == http.StatusInternalServerError {
					logger.Error("websocket command failed", "session_id", id, "command", cmd.Type, "error", err)
				}
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				return
			}
		}
	}
}

func runCommand(ctx context.Context, svc *finder.Service, id string, cmd SocketCommand) error {
	var err error
	switch cmd.Type {
	case "select":
		if cmd.CafeID == "" {
			return fmt.Errorf("%w: cafeId is required", errBadCommand)
		}
		_, err = svc.Select(ctx, id, cmd.CafeID)
	case "accept":
		_, err = svc.Accept(ctx, id)
	case "retry":
		_, err = svc.Retry(ctx, id)
	case "address":
		if cmd.Address == "" {
			return fmt.Errorf("%w: address is required", errBadCommand)
		}
		_, err = svc.LocateAddress(ctx, id, cmd.Address)
	case "report":
		req := ReportRequest{Token: cmd.Token, Lat: cmd.Lat, Lng: cmd.Lng, Error: cmd.Error}
		if !req.valid() {
			return fmt.Errorf("%w: token and either lat/lng or error are required", errBadCommand)
		}
		pos, locErr := req.result()
		err = svc.Report(ctx, id, req.Token, pos, locErr)
	default:
		return fmt.Errorf("%w: unknown type %q", errBadCommand, cmd.Type)
	}
	return err
}
