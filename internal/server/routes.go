package server

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/cafefinder/internal/handler/health"
	"github.com/playperu/cafefinder/internal/web"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	svc, broker := deps.Finder, deps.Broker

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())

	r.Route("/api/cafes", func(r chi.Router) {
		r.Get("/", handleListCafes(svc))
		r.Get("/nearby", handleNearby(svc))
	})

	r.Post("/api/sessions", handleCreateSession(logger, svc))

	// Session routes: {sessionID} validated by sessionMiddleware.
	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Get("/", handleGetSession(logger, svc))
		r.Post("/location/accept", handleAccept(logger, svc))
		r.Post("/location/retry", handleRetry(logger, svc))
		r.Post("/location/report", handleReport(logger, svc))
		r.Post("/location/address", handleLocateAddress(logger, svc))
		r.Post("/selection", handleSelect(logger, svc))
		r.Get("/events", handleEvents(svc, broker))
		r.Get("/ws", handleSocket(logger, svc, broker))
	})

	page := web.Static()
	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			page = os.DirFS(deps.SPADir)
		} else {
			logger.Warn("SPA_DIR not usable, serving embedded page", "dir", deps.SPADir)
		}
	}
	r.NotFound(handleSPA(fs.FS(page)))
}
