package cmd

import (
	"github.com/huangsam/discomfort/core"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/spf13/cobra"
)

// scoreCmd scores every segment of a network.
var scoreCmd = &cobra.Command{
	Use:   "score <segments.csv|segments.geojson>",
	Short: "Rank the street segments of a network by discomfort.",
	Long: `Score every street segment of a network for cycling or walking and rank them.

Each segment is scored with the formulas of its variant:
- CYCLE for bike mode on segments cyclists may ride
- DISMOUNT for bike mode where cyclists must walk (fixed penalty added)
- WALK for walk mode

Two totals are computed per segment: the sum of weighted subcomponents and the
sum of weighted main components. --total selects which one ranks the results.

Examples:
  # Most uncomfortable segments for cyclists
  discomfort score network.csv --limit 20

  # Walkability with the top contributions per segment
  discomfort score network.geojson --mode walk --explain

  # Re-weight lighting for cyclists
  discomfort score network.csv --sub-weight CYCLE.lit=2

  # Export scored segments for mapping
  discomfort score network.geojson --output geojson --output-file scored.geojson`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot score network", err)
		}
	},
}
