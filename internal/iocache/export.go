package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/parquet"
)

// ExportFiles names the Parquet files written for an output prefix.
func ExportFiles(outputFile string) (runs, scores, curves string) {
	return outputFile + ".runs.parquet", outputFile + ".segment_scores.parquet", outputFile + ".curve_rows.parquet"
}

// ExecuteRunExport writes every tracked run and its records to Parquet files.
func ExecuteRunExport(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled. Set --run-backend to export runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	scores, err := store.GetAllSegmentScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve segment scores: %w", err)
	}
	curves, err := store.GetAllCurveRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve curve rows: %w", err)
	}

	runsFile, scoresFile, curvesFile := ExportFiles(outputFile)
	if err := parquet.WriteFile(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	if err := parquet.WriteFile(parquet.ConvertSegmentScoreRecords(scores), scoresFile); err != nil {
		return fmt.Errorf("failed to write segment scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d segment scores to: %s\n", len(scores), scoresFile)

	if err := parquet.WriteFile(parquet.ConvertCurveRowRecords(curves), curvesFile); err != nil {
		return fmt.Errorf("failed to write curve rows: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d curve rows to: %s\n", len(curves), curvesFile)

	return nil
}
