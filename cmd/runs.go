package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/iocache"
	"github.com/huangsam/discomfort/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runBackendFromConfig reads and checks the run tracking backend.
// An empty backend means tracking is off.
func runBackendFromConfig() (schema.DatabaseBackend, string, error) {
	backend := schema.NoneBackend
	if s := viper.GetString("run-backend"); s != "" {
		backend = schema.DatabaseBackend(s)
	}
	connStr := viper.GetString("run-db-connect")
	if _, ok := schema.ValidRunBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run store operations.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := initLogger(); err != nil {
		return err
	}
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no caching for run commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads minimal configuration needed for migrate operations.
// It does NOT open the run store, so migrations can run on any schema version.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := initLogger(); err != nil {
		return err
	}
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	return nil
}

// runsCmd focused on run tracking data management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage tracked score and curve runs and exports",
	Long: `Manage the history of tracked runs.

When --run-backend is set, discomfort records every score and curve run:
- Run metadata (timestamp, configuration, duration)
- Final scores of every segment of score runs
- Every curve level and trade-off rate of curve runs

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  discomfort runs status --run-backend sqlite

  # Export for analysis in pandas/DuckDB
  discomfort runs export --run-backend sqlite --output-file runs`,
}

// runsClearCmd clears the run data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked runs",
	Long: `Delete all tracked runs with their segment scores and curve rows.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  discomfort runs export --output-file backup
  discomfort runs clear`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.Manager.GetRunStore().Clear(); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about tracked runs.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total items recorded across all runs
- Database table sizes

Examples:
  # Check run tracking status
  discomfort runs status`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports run data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracked runs to Parquet for BI tools and analytics",
	Long: `Export all stored runs to Parquet format for use with analytics tools.

Writes three files next to the --output-file prefix:
- <prefix>.runs.parquet - metadata about each run
- <prefix>.segment_scores.parquet - final segment scores of score runs
- <prefix>.curve_rows.parquet - curve levels and trade-offs of curve runs

Requires: --output-file parameter

Examples:
  # Export all data
  discomfort runs export --output-file discomfort

  # Query with DuckDB
  duckdb -c "SELECT region, beta, tradeoff_rate FROM read_parquet('discomfort.curve_rows.parquet')"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunExport(iocache.Manager.GetRunStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

Run stores migrate to the latest version when opened. Use this command to move
to a specific version or roll everything back.

Examples:
  # Migrate to latest version (default)
  discomfort runs migrate --run-backend sqlite

  # Migrate to specific version
  discomfort runs migrate --target-version 2

  # Rollback to initial state
  discomfort runs migrate --target-version 0`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
