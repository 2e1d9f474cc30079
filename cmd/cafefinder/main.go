package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/playperu/cafefinder/internal/cafedata"
	"github.com/playperu/cafefinder/internal/cli"
	"github.com/playperu/cafefinder/internal/geocode"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := cli.Dependencies{
		Cafes:    cafedata.NewLoader(),
		Geocoder: geocode.NewClient(geocode.WithBaseURL(os.Getenv("NOMINATIM_URL"))),
		Version:  version,
	}

	code := cli.Execute(ctx, os.Args[1:], deps, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
