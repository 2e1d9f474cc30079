package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/output"
)

type distanceResult struct {
	From cafefinder.Position `json:"from" yaml:"from"`
	To   cafefinder.Position `json:"to" yaml:"to"`
	Km   float64             `json:"km" yaml:"km"`
}

func newDistanceCommand() *cobra.Command {
	var from, to, format string

	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Great-circle distance between two positions in km.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := cafefinder.ParsePosition(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			q, err := cafefinder.ParsePosition(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			km := cafefinder.Haversine(p, q)
			return render(cmd, f, cafefinder.FormatKm(km),
				output.NewEnvelope(output.Meta{Command: "distance"}, distanceResult{From: p, To: q, Km: km}, nil))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&from, "from", "", "Start position as lat,lng.")
	flags.StringVar(&to, "to", "", "End position as lat,lng.")
	addFormatFlag(flags, &format)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
