package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/output"
)

const defaultCafesSource = "data/cafes.json"

type nearbyOptions struct {
	source  string
	lat     float64
	lng     float64
	address string
	limit   int
	format  string
}

type nearbyEntry struct {
	Rank       int      `json:"rank" yaml:"rank"`
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	DistanceKm *float64 `json:"distance_km,omitempty" yaml:"distance_km,omitempty"`
	Rating     float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Address    string   `json:"address,omitempty" yaml:"address,omitempty"`
	Hours      string   `json:"hours,omitempty" yaml:"hours,omitempty"`
}

type nearbyResult struct {
	Reference cafefinder.Position `json:"reference" yaml:"reference"`
	Count     int                 `json:"count" yaml:"count"`
	Cafes     []nearbyEntry       `json:"cafes" yaml:"cafes"`
}

func newNearbyCommand(deps Dependencies) *cobra.Command {
	var opts nearbyOptions

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Rank cafes by distance, nearest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			if opts.limit < 0 {
				return errors.New("--limit must not be negative")
			}

			ref, err := resolveReference(cmd, deps, opts)
			if err != nil {
				return err
			}

			if deps.Cafes == nil {
				return errors.New("no cafe source configured")
			}
			cafes, err := deps.Cafes.Fetch(cmd.Context(), opts.source)
			if err != nil {
				return err
			}
			catalog, problems := cafefinder.NewCatalog(cafes)
			warnings := make([]string, 0, len(problems))
			for _, p := range problems {
				warnings = append(warnings, p.Error())
			}

			ranked := cafefinder.Rank(catalog.Cafes(), ref)
			if opts.limit > 0 && opts.limit < len(ranked) {
				ranked = ranked[:opts.limit]
			}

			result := nearbyResult{Reference: ref, Count: len(ranked), Cafes: make([]nearbyEntry, 0, len(ranked))}
			for i, r := range ranked {
				e := nearbyEntry{
					Rank:    i + 1,
					ID:      r.Cafe.ID,
					Name:    r.Cafe.Name,
					Rating:  r.Cafe.Rating,
					Address: r.Cafe.Address,
					Hours:   r.Cafe.Hours,
				}
				if r.HasDistance {
					d := r.DistanceKm
					e.DistanceKm = &d
				}
				result.Cafes = append(result.Cafes, e)
			}

			return render(cmd, format, nearbyTable(ranked, warnings),
				output.NewEnvelope(output.Meta{Command: "nearby", Source: opts.source, Reference: &ref}, result, warnings))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.source, "cafes", defaultCafesSource, "Cafe document path or http(s) URL.")
	flags.Float64Var(&opts.lat, "lat", 0, "Reference latitude.")
	flags.Float64Var(&opts.lng, "lng", 0, "Reference longitude.")
	flags.StringVar(&opts.address, "address", "", "Reference address, resolved with Nominatim.")
	flags.IntVar(&opts.limit, "limit", 0, "Show at most this many cafes (0 = all).")
	addFormatFlag(flags, &opts.format)
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	cmd.MarkFlagsMutuallyExclusive("lat", "address")
	cmd.MarkFlagsMutuallyExclusive("lng", "address")
	cmd.MarkFlagsOneRequired("lat", "address")

	return cmd
}

func resolveReference(cmd *cobra.Command, deps Dependencies, opts nearbyOptions) (cafefinder.Position, error) {
	if address := strings.TrimSpace(opts.address); address != "" {
		if deps.Geocoder == nil {
			return cafefinder.Position{}, errors.New("address lookup is not available")
		}
		return deps.Geocoder.Geocode(cmd.Context(), address)
	}
	if cmd.Flags().Changed("address") {
		return cafefinder.Position{}, errors.New("--address must not be empty")
	}

	ref := cafefinder.Position{Lat: opts.lat, Lng: opts.lng}
	if !ref.Valid() {
		return cafefinder.Position{}, fmt.Errorf("coordinates out of range: %v,%v", opts.lat, opts.lng)
	}
	return ref, nil
}

func nearbyTable(ranked []cafefinder.Ranked, warnings []string) string {
	list := cafefinder.PresentList(ranked, "")
	rows := make([][]string, 0, len(list.Entries))
	for i, e := range list.Entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, e.Distance, e.Rating, e.Address})
	}
	table := output.RenderTable(list.Title, []string{"#", "NAME", "DISTANCE", "RATING", "ADDRESS"}, rows)
	for _, w := range warnings {
		table += "\nwarning: " + w
	}
	return table
}
