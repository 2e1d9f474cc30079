package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/cafefinder/internal/cafedata"
	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/config"
	"github.com/playperu/cafefinder/internal/finder"
	"github.com/playperu/cafefinder/internal/geocode"
	"github.com/playperu/cafefinder/internal/handler/health"
	"github.com/playperu/cafefinder/internal/locate"
	"github.com/playperu/cafefinder/internal/server"
	"github.com/playperu/cafefinder/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not read .env file", "error", envErr)
	}

	// --- Cafe data ---
	catalog := cafedata.NewLoader().Load(ctx, logger, cfg.CafesSource)

	// --- Sessions ---
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("session store ready", "redis", cfg.RedisURL != "", "ttl", cfg.SessionTTL.String())

	// --- Location ---
	broker := server.NewBroker()
	locator, err := newLocator(cfg, broker)
	if err != nil {
		return err
	}

	svc := finder.New(finder.Deps{
		Catalog:  catalog,
		Store:    store,
		Locator:  locator,
		Geocoder: geocode.NewClient(geocode.WithBaseURL(cfg.NominatimURL)),
		Events:   broker,
		Logger:   logger,
		Options: finder.Options{
			Locate: cfg.LocateOptions(),
			Grace:  cfg.GeoGrace,
			Map:    cfg.MapOptions(),
		},
	})
	defer svc.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Finder: svc,
		Broker: broker,
		Checks: map[string]health.Checker{
			"sessions": store,
			"catalog":  catalogChecker{catalog},
		},
		SPADir: cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	rdb, err := session.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return session.NewRedisStore(rdb, cfg.SessionTTL), func() { rdb.Close() }, nil
}

// newLocator pins sessions to STATIC_POSITION when set and otherwise asks
// each session's page through the broker.
func newLocator(cfg *config.Config, broker *server.Broker) (cafefinder.Locator, error) {
	if cfg.StaticPosition != "" {
		pos, err := cafefinder.ParsePosition(cfg.StaticPosition)
		if err != nil {
			return nil, fmt.Errorf("parsing STATIC_POSITION: %w", err)
		}
		return locate.Static{Position: &pos}, nil
	}
	return locate.NewBridge(func(sessionID string, req cafefinder.LocateRequest) {
		broker.Publish(sessionID, finder.Event{Type: finder.EventLocate, Locate: &req})
	}), nil
}

// catalogChecker reports an empty catalog as unhealthy.
type catalogChecker struct{ catalog *cafefinder.Catalog }

func (c catalogChecker) Check(context.Context) error {
	if c.catalog.Len() == 0 {
		return errors.New("no cafes loaded")
	}
	return nil
}
