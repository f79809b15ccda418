package cmd

import (
	"github.com/huangsam/discomfort/core"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/spf13/cobra"
)

// routeCmd follows one origin/destination pair across every beta.
var routeCmd = &cobra.Command{
	Use:   "route [segments]",
	Short: "Show how one route changes as discomfort sensitivity grows.",
	Long: `Follow one origin/destination pair across every beta of a path results file.

For each beta the route length, discomfort and their ratios to the straight-line
distance are shown, followed by the trade-off rate between distinct levels.

Segment costs come from --costs, or from scoring the segment file when given.

Examples:
  # Score the network and follow one pair
  discomfort route network.csv --paths paths.json --distances distances.csv --origin 12 --destination 34

  # Use precomputed costs and node coordinates
  discomfort route --costs costs.csv --paths paths.json --nodes nodes.csv --origin 12 --destination 34`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRoute(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute route", err)
		}
	},
}
