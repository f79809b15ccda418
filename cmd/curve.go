package cmd

import (
	"github.com/huangsam/discomfort/core"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/spf13/cobra"
)

// curveCmd builds bikeability or walkability curves.
var curveCmd = &cobra.Command{
	Use:   "curve [segments]",
	Short: "Build the distance/discomfort trade-off curve of a city and its regions.",
	Long: `Average the relative distance and relative discomfort of every origin/destination
pair at each beta, then compare consecutive distinct levels.

The marginal trade-off rate (MTOR) is the percent of discomfort avoided per percent
of extra distance. Levels equal to the one before them are suppressed first.

One curve covers the whole city; --regions adds one curve per labeled region.

Examples:
  # City curve from a scored network
  discomfort curve network.csv --paths paths.json --distances distances.csv

  # City and region curves from precomputed costs, as CSV
  discomfort curve --costs costs.csv --paths paths.json --nodes nodes.csv --regions regions.csv --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCurve(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build curves", err)
		}
	},
}
