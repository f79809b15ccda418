package cmd

import (
	"github.com/huangsam/discomfort/core"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/spf13/cobra"
)

// taxonomyCmd displays the subcomponent catalog.
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Display the subcomponents, formulas and levels of every variant",
	Long: `Show how every variant scores a segment.

Lists per variant:
- Subcomponents with their formula and categorical levels
- Main components and the subcomponents they sum
- The dismount rule and its fixed penalty

No network is scored - this is purely informational.

Examples:
  # Show the built-in taxonomy
  discomfort taxonomy

  # Show a custom taxonomy file
  discomfort taxonomy --taxonomy my-city.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTaxonomy(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display taxonomy", err)
		}
	},
}

// weightsCmd displays the active weights.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Display the active sub and main weights",
	Long: `Show the weights scoring would use, after the config file and flag overrides.

Examples:
  # Show default weights
  discomfort weights

  # Check overrides before scoring
  discomfort weights --sub-weight WALK.lit=2 --main-weight bike.security=0.5

  # Dump weights in config file layout
  discomfort weights --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeights(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display weights", err)
		}
	},
}
