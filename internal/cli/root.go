package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/playperu/cafefinder/internal/output"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := resolvedVersion(deps.Version)

	root := &cobra.Command{
		Use:           "cafefinder",
		Short:         "Find the cafes nearest to a position or an address.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
				return errVersionShown
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "v", false, "Show CLI version and exit.")
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.AddCommand(newNearbyCommand(deps))
	root.AddCommand(newDistanceCommand())

	return root
}

func addFormatFlag(flags *pflag.FlagSet, target *string) {
	flags.StringVarP(target, "format", "f", string(output.FormatTable), "Output format: table, json or yaml.")
}

// render writes a table or, for json/yaml, the envelope around data.
func render(cmd *cobra.Command, format output.Format, table string, env output.Envelope) error {
	if format == output.FormatTable {
		return output.Write(cmd.OutOrStdout(), table)
	}
	return output.Encode(cmd.OutOrStdout(), env, format)
}
