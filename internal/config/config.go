package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	CafesSource string     `env:"CAFES_SOURCE" envDefault:"data/cafes.json"`
	SPADir      string     `env:"SPA_DIR"`

	RedisURL   string        `env:"REDIS_URL"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	GeoHighAccuracy bool          `env:"GEO_HIGH_ACCURACY" envDefault:"true"`
	GeoTimeout      time.Duration `env:"GEO_TIMEOUT" envDefault:"10s"`
	GeoMaxAge       time.Duration `env:"GEO_MAX_AGE" envDefault:"60s"`
	GeoGrace        time.Duration `env:"GEO_GRACE" envDefault:"5s"`
	// StaticPosition pins every session to "lat,lng" instead of asking the
	// browser. Used for kiosks and local development.
	StaticPosition string `env:"STATIC_POSITION"`

	OverviewZoom int `env:"OVERVIEW_ZOOM" envDefault:"15"`
	SelectedZoom int `env:"SELECTED_ZOOM" envDefault:"16"`

	NominatimURL string `env:"NOMINATIM_URL"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.GeoTimeout <= 0 {
		return nil, fmt.Errorf("GEO_TIMEOUT must be positive, got %s", cfg.GeoTimeout)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.StaticPosition != "" {
		if _, err := cafefinder.ParsePosition(cfg.StaticPosition); err != nil {
			return nil, fmt.Errorf("STATIC_POSITION: %w", err)
		}
	}
	return &cfg, nil
}

func (c *Config) LocateOptions() cafefinder.LocateOptions {
	return cafefinder.LocateOptions{
		HighAccuracy: c.GeoHighAccuracy,
		Timeout:      c.GeoTimeout,
		MaximumAge:   c.GeoMaxAge,
	}
}

func (c *Config) MapOptions() cafefinder.MapOptions {
	return cafefinder.MapOptions{
		OverviewZoom: c.OverviewZoom,
		SelectedZoom: c.SelectedZoom,
	}
}
