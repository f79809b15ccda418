// Package cmd defines the command-line interface for discomfort.
package cmd

import (
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("taxonomy", "", "Path to a taxonomy YAML file (default: built-in taxonomy)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display (0 = all)")
	rootCmd.PersistentFlags().String("mode", string(schema.BikeMode), "Transport mode: bike or walk")
	rootCmd.PersistentFlags().String("total", string(schema.TotalByMain), "Total used for ranking and costs: main or sub")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or geojson")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("dedupe-precision", contract.DefaultDedupePrecision, "Decimals compared when suppressing duplicate curve levels")
	rootCmd.PersistentFlags().Int("progress-every", contract.DefaultProgressEvery, "Log scoring progress every N segments")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Score cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().StringArray("sub-weight", nil, "Sub weight override as VARIANT.key=weight (repeatable), e.g. CYCLE.lit=2")
	rootCmd.PersistentFlags().StringArray("main-weight", nil, "Main weight override as mode.key=weight (repeatable), e.g. bike.security=0.5")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Local flags are bound to Viper in sharedSetup, once the command is known
	scoreCmd.Flags().Bool("detail", false, "Print per-segment attributes (length, region, tags)")
	scoreCmd.Flags().Bool("explain", false, "Print the largest subcomponent contributions per segment")

	for _, c := range []*cobra.Command{routeCmd, curveCmd} {
		c.Flags().String("paths", "", "Path results JSON (beta -> \"o, d\" -> node ids)")
		c.Flags().String("distances", "", "Straight-line distances CSV (origin,destination,distance)")
		c.Flags().String("nodes", "", "Node coordinates CSV (id,lon,lat) for haversine distances")
		c.Flags().String("costs", "", "Segment costs CSV (u,v,length,discomfort) used instead of scoring")
	}
	routeCmd.Flags().Int64("origin", 0, "Origin node id")
	routeCmd.Flags().Int64("destination", 0, "Destination node id")
	curveCmd.Flags().String("regions", "", "Region labels CSV (origin,destination,region)")

	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
