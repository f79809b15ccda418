package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
)

// Table names for run tracking.
const (
	runsTable          = "discomfort_runs"
	segmentScoresTable = "discomfort_segment_scores"
	curveRowsTable     = "discomfort_curve_rows"
)

// runTables lists the run tables, parents first.
var runTables = []string{runsTable, segmentScoresTable, curveRowsTable}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore opens the run store and migrates it to the latest schema.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	switch backend {
	case schema.NoneBackend:
		return &RunStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported run backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	db, err := openDB(backend, connStr, contract.GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

func (rs *RunStoreImpl) table(name string) string {
	return quoteTableName(name, rs.backend)
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(kind schema.RunKind, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	args := []any{uuid.NewString(), string(kind), formatTime(startTime, rs.backend), string(configJSON)}
	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, kind, start_time, config_params) VALUES (?, ?, ?, ?)`, rs.table(runsTable))

	var runID int64
	if rs.backend == schema.PostgreSQLBackend {
		err = rs.db.QueryRow(rebind(rs.backend, query)+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var result sql.Result
		if result, err = rs.db.Exec(query, args...); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalItems int) error {
	if rs.db == nil {
		return nil
	}

	var start timeScanner
	query := rebind(rs.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, rs.table(runsTable)))
	if err := rs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(start.Time).Milliseconds()
	update := rebind(rs.backend, fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_items = ? WHERE run_id = ?`, rs.table(runsTable)))
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, totalItems, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordSegmentScores stores the final scores of a batch of segments in one transaction.
func (rs *RunStoreImpl) RecordSegmentScores(runID int64, results []schema.ScoreResult) error {
	if rs.db == nil || len(results) == 0 {
		return nil
	}

	query := rebind(rs.backend, fmt.Sprintf(`
		INSERT INTO %s (run_id, segment_key, mode, variant, score_weighted_by_main, score_weighted_by_sub, main_weighted, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rs.table(segmentScoresTable)))
	recordedAt := formatTime(time.Now(), rs.backend)

	return rs.inTx(query, func(stmt *sql.Stmt) error {
		for i := range results {
			r := &results[i]
			mainJSON, err := json.Marshal(r.MainWeighted)
			if err != nil {
				return fmt.Errorf("failed to marshal main components of %s: %w", r.SegmentID, err)
			}
			if _, err := stmt.Exec(runID, r.SegmentID.String(), string(r.Mode), string(r.Variant),
				r.ScoreWeightedByMain, r.ScoreWeightedBySub, string(mainJSON), recordedAt); err != nil {
				return fmt.Errorf("failed to insert score of %s: %w", r.SegmentID, err)
			}
		}
		return nil
	})
}

// RecordCurve stores every level of a curve. Retained levels after the first carry the
// trade-off against the level before them.
func (rs *RunStoreImpl) RecordCurve(runID int64, curve schema.CurveResult) error {
	if rs.db == nil || len(curve.Rows) == 0 {
		return nil
	}

	retained := make(map[float64]struct{}, len(curve.Retained))
	for _, r := range curve.Retained {
		retained[r.Beta] = struct{}{}
	}
	tradeoffs := make(map[float64]schema.TradeoffRow, len(curve.Tradeoffs))
	for _, t := range curve.Tradeoffs {
		tradeoffs[t.HigherBeta] = t
	}

	query := rebind(rs.backend, fmt.Sprintf(`
		INSERT INTO %s (run_id, region, beta, relative_distance, relative_discomfort, retained,
		                distance_change_percent, discomfort_change_percent, tradeoff_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rs.table(curveRowsTable)))

	return rs.inTx(query, func(stmt *sql.Stmt) error {
		for _, row := range curve.Rows {
			_, kept := retained[row.Beta]
			var dx, dd, rate sql.NullFloat64
			if t, ok := tradeoffs[row.Beta]; ok && kept {
				dx, dd, rate = nullFloat(t.DistanceChangePercent), nullFloat(t.DiscomfortChangePercent), nullFloat(t.MTOR)
			}
			if _, err := stmt.Exec(runID, curve.Region, row.Beta, row.RelativeDistance, row.RelativeDiscomfort,
				kept, dx, dd, rate); err != nil {
				return fmt.Errorf("failed to insert curve row %s at beta %g: %w", curve.Region, row.Beta, err)
			}
		}
		return nil
	})
}

// inTx prepares query inside a transaction and commits when fn succeeds.
func (rs *RunStoreImpl) inTx(query string, fn func(*sql.Stmt) error) error {
	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if err := fn(stmt); err != nil {
		return err
	}
	return tx.Commit()
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(total_items), 0) FROM %s", rs.table(runsTable)))
	if err := row.Scan(&status.TotalRuns, &status.TotalItems); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", rs.table(runsTable)))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", rs.table(runsTable)))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = last.Time
		status.OldestRunTime = oldest.Time
	}

	for _, table := range runTables {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, kind, start_time, end_time, run_duration_ms, total_items, config_params
		FROM %s ORDER BY run_id`, rs.table(runsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end timeScanner
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Kind, &start, &end,
			&record.RunDurationMs, &record.TotalItems, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllSegmentScores retrieves all recorded segment scores.
func (rs *RunStoreImpl) GetAllSegmentScores() ([]schema.SegmentScoreRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, segment_key, mode, variant, score_weighted_by_main, score_weighted_by_sub, main_weighted, recorded_at
		FROM %s ORDER BY run_id, segment_key`, rs.table(segmentScoresTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SegmentScoreRecord
	for rows.Next() {
		var record schema.SegmentScoreRecord
		var recorded timeScanner
		if err := rows.Scan(&record.RunID, &record.SegmentKey, &record.Mode, &record.Variant,
			&record.ScoreWeightedByMain, &record.ScoreWeightedBySub, &record.MainWeighted, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan segment score: %w", err)
		}
		record.RecordedAt = recorded.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment scores: %w", err)
	}
	return results, nil
}

// GetAllCurveRows retrieves all recorded curve levels.
func (rs *RunStoreImpl) GetAllCurveRows() ([]schema.CurveRowRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, region, beta, relative_distance, relative_discomfort, retained,
		distance_change_percent, discomfort_change_percent, tradeoff_rate
		FROM %s ORDER BY run_id, region, beta`, rs.table(curveRowsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query curve rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.CurveRowRecord
	for rows.Next() {
		var record schema.CurveRowRecord
		var dx, dd, rate sql.NullFloat64
		if err := rows.Scan(&record.RunID, &record.Region, &record.Beta, &record.RelativeDistance,
			&record.RelativeDiscomfort, &record.Retained, &dx, &dd, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan curve row: %w", err)
		}
		record.DistanceChangePercent = floatPtr(dx)
		record.DiscomfortChangePercent = floatPtr(dd)
		record.TradeoffRate = floatPtr(rate)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating curve rows: %w", err)
	}
	return results, nil
}

// Clear removes all runs and their records.
func (rs *RunStoreImpl) Clear() error {
	if rs.db == nil {
		return nil
	}
	for i := len(runTables) - 1; i >= 0; i-- {
		if _, err := rs.db.Exec(fmt.Sprintf("DELETE FROM %s", rs.table(runTables[i]))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", runTables[i], err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
