package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
)

// sessionMiddleware rejects malformed session ids before they reach the
// store and exposes the id to handlers.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	return r.Context().Value(ctxKeySession).(string)
}
